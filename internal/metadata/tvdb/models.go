package tvdb

// LoginRequest is the request body for TVDB authentication.
type LoginRequest struct {
	APIKey string `json:"apikey"`
}

// LoginResponse is the response from TVDB authentication.
type LoginResponse struct {
	Status string `json:"status"`
	Data   struct {
		Token string `json:"token"`
	} `json:"data"`
}

// SeriesResponse is the response for a single series.
type SeriesResponse struct {
	Status string       `json:"status"`
	Data   SeriesDetail `json:"data"`
}

// SeriesDetail contains the series fields used when adding a show.
type SeriesDetail struct {
	ID               int              `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	FirstAired       string           `json:"firstAired"`
	Status           SeriesStatus     `json:"status"`
	OriginalLanguage string           `json:"originalLanguage"`
	Overview         string           `json:"overview"`
	Year             string           `json:"year"`
	OriginalNetwork  *Network         `json:"originalNetwork"`
	LatestNetwork    *Network         `json:"latestNetwork"`
	RemoteIDs        []SeriesRemoteID `json:"remoteIds"`
}

// SeriesStatus represents the status of a series.
type SeriesStatus struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Network is a broadcaster or streaming service.
type Network struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SeriesRemoteID represents an external ID for a series.
type SeriesRemoteID struct {
	ID         string `json:"id"`
	Type       int    `json:"type"`
	SourceName string `json:"sourceName"`
}

// RemoteIDResponse is the response from /search/remoteid.
type RemoteIDResponse struct {
	Status string           `json:"status"`
	Data   []RemoteIDResult `json:"data"`
}

// RemoteIDResult holds one matching record. Only one field is set.
type RemoteIDResult struct {
	Series *RemoteRecord `json:"series"`
	Movie  *RemoteRecord `json:"movie"`
}

// RemoteRecord is the minimal record returned by a remote id search.
type RemoteRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Series is the normalized series returned to callers.
type Series struct {
	TvdbID   int    `json:"tvdbId"`
	Title    string `json:"title"`
	Year     int    `json:"year,omitempty"`
	Network  string `json:"network,omitempty"`
	Overview string `json:"overview,omitempty"`
	Status   string `json:"status"`
	Language string `json:"language,omitempty"`
	ImdbID   string `json:"imdbId,omitempty"`
	TmdbID   int    `json:"tmdbId,omitempty"`
}
