package addshow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marquee/marquee/internal/defaults"
)

type fakeDefaults struct {
	d   defaults.Defaults
	err error
}

func (f *fakeDefaults) Snapshot(context.Context) (defaults.Defaults, error) {
	return f.d, f.err
}

type note struct {
	level, title, body string
}

type fakeNotifier struct {
	notes []note
}

func (f *fakeNotifier) Message(title, body string) {
	f.notes = append(f.notes, note{"message", title, body})
}

func (f *fakeNotifier) Error(title, body string) {
	f.notes = append(f.notes, note{"error", title, body})
}

type handlerFixture struct {
	*fixture
	defaults *fakeDefaults
	notifier *fakeNotifier
	echo     *echo.Echo
}

func newHandlerFixture() *handlerFixture {
	hf := &handlerFixture{
		fixture:  newFixture(),
		defaults: &fakeDefaults{d: testDefaults()},
		notifier: &fakeNotifier{},
		echo:     echo.New(),
	}
	NewHandlers(hf.resolver, hf.defaults, hf.notifier).RegisterRoutes(hf.echo.Group("/addShows"))
	return hf
}

func (hf *handlerFixture) post(t *testing.T, form url.Values) (int, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/addShows/addShowByID", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	hf.echo.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestAddShowByID_Success(t *testing.T) {
	hf := newHandlerFixture()

	code, resp := hf.post(t, url.Values{"showslug": {"tvdb81189"}})

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Result)
	assert.Equal(t, "Adding the specified show Breaking Bad", resp.Message)
	assert.Equal(t, "home", resp.Redirect)
	assert.Equal(t, []Param{}, resp.Params)

	require.Len(t, hf.queue.reqs, 1)
	assert.Equal(t, "/mnt/shows", hf.queue.reqs[0].RootDirectory)
	require.Len(t, hf.notifier.notes, 1)
	assert.Equal(t, note{"message", "Show added", "Adding the specified show Breaking Bad"}, hf.notifier.notes[0])
}

func TestAddShowByID_QueryString(t *testing.T) {
	hf := newHandlerFixture()

	req := httptest.NewRequest(http.MethodPost,
		"/addShows/addShowByID?showslug=tvdb81189&configure_show_options=on&root_dir=/srv/tv&any_qualities=hdtv", nil)
	rec := httptest.NewRecorder()
	hf.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, hf.queue.reqs, 1)
	assert.Equal(t, "/srv/tv", hf.queue.reqs[0].RootDirectory)
	assert.Equal(t, []string{"hdtv"}, hf.queue.reqs[0].Quality.Allowed)
}

func TestAddShowByID_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		roots   []string
		status  int
		message string
	}{
		{"invalid slug", url.Values{"showslug": {"nope"}}, nil, http.StatusBadRequest, `Invalid show identifier "nope"`},
		{"duplicate", url.Values{"showslug": {"tvdb73739"}}, nil, http.StatusConflict, "Show already exists"},
		{"no root", url.Values{"showslug": {"tvdb81189"}}, []string{}, http.StatusUnprocessableEntity, "No root directories set up, please go back and add one."},
		{"unresolvable", url.Values{"showslug": {"tmdb5"}, "show_name": {"Lost Show"}}, nil, http.StatusNotFound, "Unable to find tvdb ID to add Lost Show"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hf := newHandlerFixture()
			if tt.roots != nil {
				hf.defaults.d.RootDirs = tt.roots
			}

			code, resp := hf.post(t, tt.form)
			assert.Equal(t, tt.status, code)
			assert.False(t, resp.Result)
			assert.Equal(t, tt.message, resp.Message)
			assert.Empty(t, resp.Redirect)
			assert.Empty(t, hf.queue.reqs)
		})
	}
}

func TestAddShowByID_UnresolvableNotifies(t *testing.T) {
	hf := newHandlerFixture()

	hf.post(t, url.Values{"showslug": {"tmdb5"}, "show_name": {"Lost Show"}})

	require.Len(t, hf.notifier.notes, 1)
	n := hf.notifier.notes[0]
	assert.Equal(t, "error", n.level)
	assert.Equal(t, "Unable to add Lost Show", n.title)
	assert.Contains(t, n.body, "unable to locate the tvdb id")
}

func TestAddShowByID_DefaultsError(t *testing.T) {
	hf := newHandlerFixture()
	hf.defaults.err = errors.New("db gone")

	code, resp := hf.post(t, url.Values{"showslug": {"tvdb81189"}})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, resp.Result)
}

func TestNewResponse_StripsRedirectSlashes(t *testing.T) {
	resp := NewResponse(true, "ok", "/home/", Param{Key: "tab", Value: "new"})
	assert.Equal(t, "home", resp.Redirect)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":true,"message":"ok","redirect":"home","params":[["tab","new"]]}`, string(data))
}
