package addshow

import (
	"encoding/json"
	"strings"
)

// Param is a query parameter appended to the redirect.
type Param struct {
	Key   string
	Value string
}

// MarshalJSON encodes the param as a [key, value] pair.
func (p Param) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Key, p.Value})
}

// UnmarshalJSON decodes a [key, value] pair.
func (p *Param) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	p.Key, p.Value = pair[0], pair[1]
	return nil
}

// Response is the record returned to the UI for every add attempt.
type Response struct {
	Result   bool    `json:"result"`
	Message  string  `json:"message"`
	Redirect string  `json:"redirect"`
	Params   []Param `json:"params"`
}

// NewResponse builds a response. Leading and trailing slashes are stripped
// from redirect.
func NewResponse(result bool, message, redirect string, params ...Param) Response {
	if params == nil {
		params = []Param{}
	}
	return Response{
		Result:   result,
		Message:  message,
		Redirect: strings.Trim(redirect, "/"),
		Params:   params,
	}
}
