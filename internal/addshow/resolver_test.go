package addshow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marquee/marquee/internal/defaults"
	"github.com/marquee/marquee/internal/metadata"
	"github.com/marquee/marquee/internal/quality"
	"github.com/marquee/marquee/internal/series"
)

type fakeTranslator struct {
	ids   map[string]int
	err   error
	calls int
}

func (f *fakeTranslator) TranslateToCanonical(_ context.Context, indexer series.Indexer, id int) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	tvdbID, ok := f.ids[fmt.Sprintf("%s%d", indexer, id)]
	if !ok {
		return 0, fmt.Errorf("%w: %s%d", metadata.ErrNotFound, indexer, id)
	}
	return tvdbID, nil
}

type fakeRegistry struct {
	existing map[series.Identifier]bool
	err      error
}

func (f *fakeRegistry) Exists(_ context.Context, id series.Identifier) (bool, error) {
	return f.existing[id], f.err
}

type fakeNamer struct {
	names map[int]string
	err   error
}

func (f *fakeNamer) DisplayName(_ context.Context, id series.Identifier) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.names[id.ID], nil
}

type fakeGroups struct {
	aliases map[string]string
	err     error
	calls   int
}

func (f *fakeGroups) CanonicalizeGroupNames(_ context.Context, names []string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if short, ok := f.aliases[n]; ok {
			n = short
		}
		out = append(out, n)
	}
	return out, nil
}

type fakeQueue struct {
	mu   sync.Mutex
	reqs []*Request
}

func (f *fakeQueue) Enqueue(_ context.Context, req *Request) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return Handle(fmt.Sprintf("h-%d", len(f.reqs)))
}

type fakeRecorder struct {
	outcomes []string
}

func (f *fakeRecorder) ObserveResolution(outcome string, _ time.Duration) {
	f.outcomes = append(f.outcomes, outcome)
}

type fixture struct {
	translator *fakeTranslator
	registry   *fakeRegistry
	namer      *fakeNamer
	groups     *fakeGroups
	queue      *fakeQueue
	recorder   *fakeRecorder
	resolver   *Resolver
}

func newFixture() *fixture {
	f := &fixture{
		translator: &fakeTranslator{ids: map[string]int{"tvmaze169": 81189, "imdb903747": 81189}},
		registry:   &fakeRegistry{existing: map[series.Identifier]bool{series.Canonical(73739): true}},
		namer:      &fakeNamer{names: map[int]string{81189: "Breaking Bad", 121361: "Game of Thrones"}},
		groups:     &fakeGroups{aliases: map[string]string{"HorribleSubs": "HS"}},
		queue:      &fakeQueue{},
		recorder:   &fakeRecorder{},
	}
	f.resolver = NewResolver(f.translator, f.registry, f.namer, f.groups, f.queue, zerolog.Nop())
	f.resolver.SetRecorder(f.recorder)
	return f
}

func testDefaults() defaults.Defaults {
	return defaults.Defaults{
		Quality:       quality.Combine([]string{"hdtv", "hdwebdl"}, []string{"hdbluray"}),
		SeasonFolders: true,
		Subtitles:     false,
		Anime:         false,
		Scene:         true,
		RootDirs:      []string{"0", "/mnt/shows", "/mnt/anime"},
		Status:        series.StatusSkipped,
		StatusAfter:   series.StatusWanted,
		Language:      "en",
	}
}

func requireRejection(t *testing.T, err error, want Reason) *Rejection {
	t.Helper()
	var rej *Rejection
	require.True(t, errors.As(err, &rej), "error %v is not a *Rejection", err)
	assert.Equal(t, want, rej.Reason)
	return rej
}

func TestResolve_InvalidSlug(t *testing.T) {
	f := newFixture()
	for _, slug := range []string{"", "tvdb", "81189", "foo123", "tvdb0", "tvdb12x", "tvdb-5"} {
		t.Run(slug, func(t *testing.T) {
			req, err := f.resolver.Resolve(context.Background(), Input{ShowSlug: slug}, testDefaults())
			assert.Nil(t, req)
			rej := requireRejection(t, err, ReasonInvalidSlug)
			assert.ErrorIs(t, rej, series.ErrInvalidSlug)
		})
	}
}

func TestResolve_TranslatesNonCanonical(t *testing.T) {
	f := newFixture()
	for _, slug := range []string{"tvmaze169", "imdb903747", "TVMAZE169"} {
		t.Run(slug, func(t *testing.T) {
			req, err := f.resolver.Resolve(context.Background(), Input{ShowSlug: slug}, testDefaults())
			require.NoError(t, err)
			assert.True(t, req.Identifier.IsCanonical())
			assert.Equal(t, series.Canonical(81189), req.Identifier)
			assert.Equal(t, "Breaking Bad", req.DisplayName)
		})
	}
}

func TestResolve_CanonicalSkipsTranslation(t *testing.T) {
	f := newFixture()
	_, err := f.resolver.Resolve(context.Background(), Input{ShowSlug: "tvdb81189"}, testDefaults())
	require.NoError(t, err)
	assert.Zero(t, f.translator.calls)
}

func TestResolve_TranslationNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.resolver.Resolve(context.Background(), Input{ShowSlug: "tmdb1", ShowName: "Nowhere"}, testDefaults())
	rej := requireRejection(t, err, ReasonIdentifierResolutionFailed)
	assert.Equal(t, "Nowhere", rej.ShowName)
	assert.Equal(t, "tmdb1", rej.Slug)
}

func TestResolve_TranslationErrorIsFailure(t *testing.T) {
	f := newFixture()
	boom := errors.New("provider down")
	f.translator.err = boom

	_, err := f.resolver.Resolve(context.Background(), Input{ShowSlug: "tvmaze169"}, testDefaults())
	rej := requireRejection(t, err, ReasonFailed)
	assert.ErrorIs(t, rej, boom)
}

func TestResolve_DuplicateRegardlessOfOverrides(t *testing.T) {
	inputs := []Input{
		{ShowSlug: "tvdb73739"},
		{ShowSlug: "tvdb73739", ConfigureShowOptions: "on", RootDir: "/tmp", AllowedQualities: "x"},
		{ShowSlug: "tvdb73739", ConfigureShowOptions: "true", QualityPreset: "8", Anime: "1"},
		{ShowSlug: "tvdb73739", ConfigureShowOptions: "off"},
	}
	for i, in := range inputs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			f := newFixture()
			d := testDefaults()
			d.RootDirs = nil
			_, err := f.resolver.Resolve(context.Background(), in, d)
			requireRejection(t, err, ReasonDuplicateShow)
			assert.Empty(t, f.queue.reqs)
		})
	}
}

func TestResolve_DuplicateAfterTranslation(t *testing.T) {
	f := newFixture()
	f.registry.existing[series.Canonical(81189)] = true

	_, err := f.resolver.Resolve(context.Background(), Input{ShowSlug: "tvmaze169"}, testDefaults())
	requireRejection(t, err, ReasonDuplicateShow)
}

func TestResolve_RegistryErrorIsFailure(t *testing.T) {
	f := newFixture()
	f.registry.err = errors.New("db locked")

	_, err := f.resolver.Resolve(context.Background(), Input{ShowSlug: "tvdb81189"}, testDefaults())
	requireRejection(t, err, ReasonFailed)
}

func TestResolve_DefaultsIgnoreOverrides(t *testing.T) {
	d := testDefaults()
	want := quality.Split(d.Quality)

	inputs := []Input{
		{ShowSlug: "tvdb81189"},
		{ShowSlug: "tvdb81189", ConfigureShowOptions: "off", AllowedQualities: "sdtv", PreferredQualities: "sddvd"},
		{ShowSlug: "tvdb81189", ConfigureShowOptions: "", QualityPreset: "4", RootDir: "/elsewhere", Anime: "on", Blacklist: "HorribleSubs"},
		{ShowSlug: "tvdb81189", ConfigureShowOptions: "no", DefaultStatus: "ignored", IndexerLang: "fr"},
	}
	for i, in := range inputs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			f := newFixture()
			req, err := f.resolver.Resolve(context.Background(), in, d)
			require.NoError(t, err)

			assert.True(t, req.Quality.Equal(want), "quality = %+v, want %+v", req.Quality, want)
			assert.Equal(t, "/mnt/shows", req.RootDirectory)
			assert.True(t, req.SeasonFolders)
			assert.True(t, req.Scene)
			assert.False(t, req.Anime)
			assert.Equal(t, series.StatusSkipped, req.DefaultStatus)
			assert.Equal(t, series.StatusWanted, req.DefaultStatusAfter)
			assert.Equal(t, "en", req.Language)
			assert.Empty(t, req.Blacklist)
			assert.Empty(t, req.Whitelist)
			assert.Zero(t, f.groups.calls)
		})
	}
}

func TestResolve_DefaultRootDirOffset(t *testing.T) {
	tests := []struct {
		rootDirs []string
		want     string
	}{
		{[]string{"0", "/mnt/shows", "/mnt/anime"}, "/mnt/shows"},
		{[]string{"1", "/mnt/shows", "/mnt/anime"}, "/mnt/anime"},
	}
	for _, tt := range tests {
		d := testDefaults()
		d.RootDirs = tt.rootDirs
		req, err := newFixture().resolver.Resolve(context.Background(), Input{ShowSlug: "tvdb81189"}, d)
		require.NoError(t, err)
		if req.RootDirectory != tt.want {
			t.Errorf("RootDirectory = %q, want %q", req.RootDirectory, tt.want)
		}
	}
}

func TestResolve_NumericPresetClearsPreferred(t *testing.T) {
	for _, preset := range []string{"8", "1", "-3", " 65544 "} {
		t.Run(preset, func(t *testing.T) {
			req, err := newFixture().resolver.Resolve(context.Background(), Input{
				ShowSlug:             "tvdb81189",
				ConfigureShowOptions: "on",
				QualityPreset:        preset,
				AllowedQualities:     "hdtv",
				PreferredQualities:   "hdbluray,fullhdbluray",
				RootDir:              "/tv",
			}, testDefaults())
			require.NoError(t, err)
			assert.Empty(t, req.Quality.Preferred)
			assert.Equal(t, []string{"hdtv"}, req.Quality.Allowed)
		})
	}
}

func TestResolve_NonNumericPresetKeepsPreferred(t *testing.T) {
	for _, preset := range []string{"", "0", "hd", "custom"} {
		t.Run(preset, func(t *testing.T) {
			req, err := newFixture().resolver.Resolve(context.Background(), Input{
				ShowSlug:             "tvdb81189",
				ConfigureShowOptions: "on",
				QualityPreset:        preset,
				AllowedQualities:     "hdtv",
				PreferredQualities:   "hdbluray",
				RootDir:              "/tv",
			}, testDefaults())
			require.NoError(t, err)
			assert.Equal(t, []string{"hdbluray"}, req.Quality.Preferred)
		})
	}
}

func TestResolve_CommaSeparatedQualities(t *testing.T) {
	req, err := newFixture().resolver.Resolve(context.Background(), Input{
		ShowSlug:             "tvdb81189",
		ConfigureShowOptions: "on",
		AllowedQualities:     "720p,1080p",
		PreferredQualities:   "",
		RootDir:              "/tv",
	}, testDefaults())
	require.NoError(t, err)

	want := quality.Selection{Allowed: []string{"720p", "1080p"}, Preferred: []string{}}
	assert.True(t, req.Quality.Equal(want), "quality = %+v", req.Quality)
	assert.NotNil(t, req.Quality.Preferred)
}

func TestResolve_ExplicitOptions(t *testing.T) {
	f := newFixture()
	req, err := f.resolver.Resolve(context.Background(), Input{
		ShowSlug:             "tvdb121361",
		ConfigureShowOptions: "ON",
		SeasonFolders:        "off",
		Subtitles:            "1",
		Anime:                "true",
		Scene:                "",
		Blacklist:            "HorribleSubs, NTb",
		Whitelist:            "",
		RootDir:              " /mnt/anime ",
		DefaultStatus:        "wanted",
		DefaultStatusAfter:   "7",
		IndexerLang:          "de",
	}, testDefaults())
	require.NoError(t, err)

	assert.False(t, req.SeasonFolders)
	assert.True(t, req.Subtitles)
	assert.True(t, req.Anime)
	assert.False(t, req.Scene)
	assert.Equal(t, []string{"HS", "NTb"}, req.Blacklist)
	assert.Equal(t, []string{}, req.Whitelist)
	assert.Equal(t, "/mnt/anime", req.RootDirectory)
	assert.Equal(t, series.StatusWanted, req.DefaultStatus)
	assert.Equal(t, series.StatusIgnored, req.DefaultStatusAfter)
	assert.Equal(t, "de", req.Language)
	assert.Equal(t, "Game of Thrones", req.DisplayName)
	assert.Equal(t, 1, f.groups.calls, "only the non-empty list is canonicalized")
}

func TestResolve_ExplicitStatusFallsBack(t *testing.T) {
	req, err := newFixture().resolver.Resolve(context.Background(), Input{
		ShowSlug:             "tvdb81189",
		ConfigureShowOptions: "yes",
		RootDir:              "/tv",
		DefaultStatus:        "bogus",
	}, testDefaults())
	require.NoError(t, err)
	assert.Equal(t, series.StatusSkipped, req.DefaultStatus)
	assert.Equal(t, series.StatusWanted, req.DefaultStatusAfter)
	assert.Equal(t, "en", req.Language)
}

func TestResolve_GroupNamerErrorIsFailure(t *testing.T) {
	f := newFixture()
	f.groups.err = errors.New("naming down")

	_, err := f.resolver.Resolve(context.Background(), Input{
		ShowSlug: "tvdb81189", ConfigureShowOptions: "on", RootDir: "/tv", Whitelist: "x",
	}, testDefaults())
	requireRejection(t, err, ReasonFailed)
}

func TestResolve_NoRootDirectory(t *testing.T) {
	emptyRoots := [][]string{nil, {}, {"0"}, {"5", "/a"}, {"x", "/a"}}
	for i, roots := range emptyRoots {
		t.Run(fmt.Sprintf("defaults-%d", i), func(t *testing.T) {
			d := testDefaults()
			d.RootDirs = roots
			req, err := newFixture().resolver.Resolve(context.Background(), Input{ShowSlug: "tvdb81189"}, d)
			assert.Nil(t, req)
			requireRejection(t, err, ReasonNoRootDirectory)
		})
	}

	t.Run("explicit", func(t *testing.T) {
		for _, root := range []string{"", "   "} {
			req, err := newFixture().resolver.Resolve(context.Background(), Input{
				ShowSlug: "tvdb81189", ConfigureShowOptions: "on", RootDir: root,
			}, testDefaults())
			assert.Nil(t, req)
			requireRejection(t, err, ReasonNoRootDirectory)
		}
	})
}

func TestResolve_NamerErrorIsFailure(t *testing.T) {
	f := newFixture()
	f.namer.err = errors.New("tvdb unavailable")

	_, err := f.resolver.Resolve(context.Background(), Input{ShowSlug: "tvdb81189"}, testDefaults())
	rej := requireRejection(t, err, ReasonFailed)
	assert.ErrorIs(t, rej, f.namer.err)
}

func TestResolve_RecordsOutcomes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _ = f.resolver.Resolve(ctx, Input{ShowSlug: "tvdb81189"}, testDefaults())
	_, _ = f.resolver.Resolve(ctx, Input{ShowSlug: "bad"}, testDefaults())
	_, _ = f.resolver.Resolve(ctx, Input{ShowSlug: "tvdb73739"}, testDefaults())

	assert.Equal(t, []string{OutcomeAccepted, string(ReasonInvalidSlug), string(ReasonDuplicateShow)}, f.recorder.outcomes)
}

func TestResolve_Concurrent(t *testing.T) {
	f := newFixture()
	f.resolver.SetRecorder(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := f.resolver.Resolve(context.Background(), Input{ShowSlug: "tvdb81189"}, testDefaults())
			if err != nil || req.Identifier != series.Canonical(81189) {
				t.Errorf("Resolve() = %v, %v", req, err)
			}
		}()
	}
	wg.Wait()
}

func TestSubmit(t *testing.T) {
	f := newFixture()
	req := &Request{Identifier: series.Canonical(81189), DisplayName: "Breaking Bad"}

	h := f.resolver.Submit(context.Background(), req)
	assert.Equal(t, Handle("h-1"), h)
	require.Len(t, f.queue.reqs, 1)
	assert.Same(t, req, f.queue.reqs[0])
}
