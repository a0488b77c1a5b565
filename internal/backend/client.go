package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/jask/signalfromnoise/internal/api"
	"github.com/jask/signalfromnoise/internal/wizard"
)

// Codec is the wire format a Client negotiates.
type Codec string

const (
	CodecJSON    Codec = "json"
	CodecMsgpack Codec = "msgpack"
)

// HTTPError is a non-2xx response decoded from the API error body.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Client reaches the catalog over the HTTP API.
type Client struct {
	base  *url.URL
	http  *http.Client
	codec Codec
}

var _ wizard.Backend = (*Client)(nil)

// NewClient validates baseURL and codec. timeout bounds every request in
// addition to the caller's context.
func NewClient(baseURL string, codec Codec, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q: must be an absolute http url", baseURL)
	}
	switch codec {
	case "", CodecJSON:
		codec = CodecJSON
	case CodecMsgpack:
	default:
		return nil, fmt.Errorf("backend codec %q: want json or msgpack", codec)
	}
	return &Client{base: u, http: &http.Client{Timeout: timeout}, codec: codec}, nil
}

func (c *Client) mime() string {
	if c.codec == CodecMsgpack {
		return api.MIMEMsgpack
	}
	return "application/json"
}

func (c *Client) marshal(v interface{}) ([]byte, error) {
	if c.codec == CodecMsgpack {
		return msgpack.Marshal(v)
	}
	return json.Marshal(v)
}

// do sends the request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	var rd io.Reader
	if body != nil {
		raw, err := c.marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", c.mime())
	if body != nil {
		req.Header.Set("Content-Type", c.mime())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode/100 != 2 {
		herr := &HTTPError{Status: resp.StatusCode, Code: "HTTP_ERROR", Message: http.StatusText(resp.StatusCode)}
		var apiErr api.APIError
		if c.unmarshal(resp.Header.Get("Content-Type"), raw, &apiErr) == nil && apiErr.Code != "" {
			herr.Code, herr.Message, herr.Details = apiErr.Code, apiErr.Message, apiErr.Details
		}
		return nil, herr
	}
	return raw, nil
}

// unmarshal decodes by the response's content type, not the requested codec,
// so error bodies from proxies still decode.
func (c *Client) unmarshal(contentType string, raw []byte, v interface{}) error {
	if strings.HasPrefix(contentType, api.MIMEMsgpack) {
		return msgpack.Unmarshal(raw, v)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func (c *Client) FetchProductionRequests(ctx context.Context) ([]wizard.ProductionRequest, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/requests", nil, nil)
	if err != nil {
		return nil, err
	}
	var dtos []api.RequestDTO
	if err := c.unmarshal(c.mime(), raw, &dtos); err != nil {
		return nil, fmt.Errorf("decode requests: %w", err)
	}
	out := make([]wizard.ProductionRequest, len(dtos))
	for i, d := range dtos {
		title := d.Title
		if strings.TrimSpace(title) == "" {
			title = fmt.Sprintf("REQUEST FOR PRODUCTION NO: %d", d.ID)
		}
		out[i] = wizard.ProductionRequest{ID: d.ID, Title: title, Description: d.Description}
	}
	return out, nil
}

func (c *Client) FetchCategories(ctx context.Context, requestID *int64) (wizard.CategoryPayload, error) {
	q := url.Values{}
	if requestID != nil {
		q.Set("request_id", strconv.FormatInt(*requestID, 10))
	}
	raw, err := c.do(ctx, http.MethodGet, "/api/categories", q, nil)
	if err != nil {
		return wizard.CategoryPayload{}, err
	}
	if c.codec == CodecMsgpack {
		return decodeCategoriesMsgpack(raw)
	}
	return decodeCategoriesJSON(raw)
}

// decodeCategoriesJSON accepts either a name list or a name -> count object
// and keeps the object's key order, which a Go map would lose.
func decodeCategoriesJSON(raw []byte) (wizard.CategoryPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return wizard.CategoryPayload{}, fmt.Errorf("decode categories: %w", err)
	}
	switch tok {
	case json.Delim('['):
		names := []string{}
		for dec.More() {
			var name string
			if err := dec.Decode(&name); err != nil {
				return wizard.CategoryPayload{}, fmt.Errorf("decode category name: %w", err)
			}
			names = append(names, name)
		}
		return wizard.CategoryPayload{Names: names}, nil
	case json.Delim('{'):
		counts := []wizard.CategoryCount{}
		for dec.More() {
			key, err := dec.Token()
			if err != nil {
				return wizard.CategoryPayload{}, fmt.Errorf("decode category key: %w", err)
			}
			var n int
			if err := dec.Decode(&n); err != nil {
				return wizard.CategoryPayload{}, fmt.Errorf("decode count of %v: %w", key, err)
			}
			counts = append(counts, wizard.CategoryCount{Token: fmt.Sprint(key), Count: n})
		}
		return wizard.CategoryPayload{Counts: counts}, nil
	default:
		return wizard.CategoryPayload{}, fmt.Errorf("decode categories: unexpected %v", tok)
	}
}

func decodeCategoriesMsgpack(raw []byte) (wizard.CategoryPayload, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	code, err := dec.PeekCode()
	if err != nil {
		return wizard.CategoryPayload{}, fmt.Errorf("decode categories: %w", err)
	}
	switch {
	case msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32:
		var names []string
		if err := dec.Decode(&names); err != nil {
			return wizard.CategoryPayload{}, fmt.Errorf("decode category names: %w", err)
		}
		if names == nil {
			names = []string{}
		}
		return wizard.CategoryPayload{Names: names}, nil
	case msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return wizard.CategoryPayload{}, err
		}
		counts := make([]wizard.CategoryCount, 0, n)
		for i := 0; i < n; i++ {
			key, err := dec.DecodeString()
			if err != nil {
				return wizard.CategoryPayload{}, fmt.Errorf("decode category key: %w", err)
			}
			count, err := dec.DecodeInt()
			if err != nil {
				return wizard.CategoryPayload{}, fmt.Errorf("decode count of %s: %w", key, err)
			}
			counts = append(counts, wizard.CategoryCount{Token: key, Count: count})
		}
		return wizard.CategoryPayload{Counts: counts}, nil
	default:
		return wizard.CategoryPayload{}, fmt.Errorf("decode categories: unexpected msgpack code %#x", code)
	}
}

type filesEnvelope struct {
	Files      []map[string]interface{} `json:"files" msgpack:"files"`
	TotalCount int                      `json:"total_count" msgpack:"total_count"`
	Page       int                      `json:"page" msgpack:"page"`
	PageSize   int                      `json:"page_size" msgpack:"page_size"`
	TotalPages int                      `json:"total_pages" msgpack:"total_pages"`
}

func (c *Client) FetchFiles(ctx context.Context, categories []string) ([]wizard.FileRecord, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/files", nil, api.FilesRequest{Categories: categories})
	if err != nil {
		return nil, err
	}
	var env filesEnvelope
	if err := c.unmarshal(c.mime(), raw, &env); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	return recordsFromWire(env.Files)
}

func (c *Client) SearchFiles(ctx context.Context, req wizard.SearchRequest) (wizard.SearchResult, error) {
	body := api.SearchRequest{
		ProductionRequestID: req.ProductionRequestID,
		Categories:          req.Categories,
		ExcludePrivileged:   req.ExcludePrivileged,
		Page:                req.Page,
		PageSize:            req.PageSize,
	}
	if req.DateStart != nil {
		body.DateStart = req.DateStart.Format(time.RFC3339)
	}
	if req.DateEnd != nil {
		body.DateEnd = req.DateEnd.Format(time.RFC3339)
	}
	raw, err := c.do(ctx, http.MethodPost, "/api/files/search", nil, body)
	if err != nil {
		return wizard.SearchResult{}, err
	}
	var env filesEnvelope
	if err := c.unmarshal(c.mime(), raw, &env); err != nil {
		return wizard.SearchResult{}, fmt.Errorf("decode search: %w", err)
	}
	files, err := recordsFromWire(env.Files)
	if err != nil {
		return wizard.SearchResult{}, err
	}
	return wizard.SearchResult{
		Files:      files,
		TotalCount: env.TotalCount,
		Page:       env.Page,
		PageSize:   env.PageSize,
		TotalPages: env.TotalPages,
	}, nil
}

func (c *Client) CreateZip(ctx context.Context, req wizard.ZipRequest) (wizard.ZipResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/zip", nil, api.ZipRequest{
		ProductionRequestID: req.ProductionRequestID,
		FileIDs:             req.FileIDs,
	})
	if err != nil {
		return wizard.ZipResult{}, err
	}
	var res api.ZipResponse
	if err := c.unmarshal(c.mime(), raw, &res); err != nil {
		return wizard.ZipResult{}, fmt.Errorf("decode zip result: %w", err)
	}
	return wizard.ZipResult{Success: res.Success, ZipPath: res.ZipPath, Message: res.Message}, nil
}

// recordsFromWire lifts the interpreted fields out of each object and keeps
// the rest in Extra. Both file_name and filename are accepted.
func recordsFromWire(objs []map[string]interface{}) ([]wizard.FileRecord, error) {
	out := make([]wizard.FileRecord, 0, len(objs))
	for i, obj := range objs {
		id, err := toInt64(obj["id"])
		if err != nil {
			return nil, fmt.Errorf("file %d: id: %w", i, err)
		}
		rec := wizard.FileRecord{ID: id, Extra: map[string]any{}}
		for k, v := range obj {
			switch k {
			case "id":
			case "file_name", "filename":
				rec.Filename = fmt.Sprint(v)
			case "path":
				rec.Path = fmt.Sprint(v)
			case "category":
				rec.Category = fmt.Sprint(v)
			default:
				rec.Extra[k] = normalizeNumber(v)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// normalizeNumber turns every integer the codecs produce into int64 and other
// JSON numbers into float64.
func normalizeNumber(v interface{}) interface{} {
	switch n := v.(type) {
	case json.Number:
		if iv, err := n.Int64(); err == nil {
			return iv
		}
		if fv, err := n.Float64(); err == nil {
			return fv
		}
	case int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		iv, _ := toInt64(n)
		return iv
	}
	return v
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Int64()
	case int64:
		return n, nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case nil:
		return 0, fmt.Errorf("missing")
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
