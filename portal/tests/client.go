package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"

	"research_portal/portal/schema"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrBadRequest    = errors.New("bad request")
	ErrUnprocessable = errors.New("unprocessable entity")
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{api: api, method: method, endpoint: endpoint}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

func (r *httpTestRequest) Form(values url.Values) *httpTestRequest {
	r.body = bytes.NewBufferString(values.Encode())
	return r.Header("Content-Type", "application/x-www-form-urlencoded")
}

func (r *httpTestRequest) Body(body io.Reader) *httpTestRequest {
	r.body = body
	return r
}

func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnprocessableEntity:
		return ErrUnprocessable
	}
	return nil
}

func (r *httpTestRequest) do() (*httptest.ResponseRecorder, error) {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return nil, fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	for k, v := range r.headers {
		req.Header.Add(k, v)
	}

	w := httptest.NewRecorder()
	r.api.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		if err := statusError(w.Code); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%v request to endpoint %v returned status %d, content '%v'", r.method, r.endpoint, w.Code, w.Body.String())
	}

	return w, nil
}

// response body is parsed into result, passing nil indicates no result is expected.
func (r *httpTestRequest) Do(result interface{}) error {
	w, err := r.do()
	if err != nil {
		return err
	}

	if result != nil {
		err := json.NewDecoder(w.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}
	return nil
}

// Raw returns the unparsed response body.
func (r *httpTestRequest) Raw() ([]byte, error) {
	w, err := r.do()
	if err != nil {
		return nil, err
	}
	return w.Body.Bytes(), nil
}

type client struct {
	api       http.Handler
	authToken string
}

func (c *client) Get(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "GET", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Post(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "POST", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) login(username, password string) error {
	var res map[string]string
	err := c.Post("/token").Form(url.Values{"username": {username}, "password": {password}}).Do(&res)
	if err != nil {
		return err
	}

	c.authToken = res["access_token"]
	return nil
}

func (c *client) createUser(username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.Post("/user/create").Json(body).Do(nil)
}

// upload submits a multipart upload with the given file content and metadata
// form fields and returns the assigned file id.
func (c *client) upload(filename string, content []byte, fields url.Values) (string, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(content); err != nil {
		return "", err
	}

	for key, values := range fields {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return "", err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return "", err
	}

	var res map[string]string
	err = c.Post("/upload/").
		Header("Content-Type", writer.FormDataContentType()).
		Body(body).
		Do(&res)
	if err != nil {
		return "", err
	}

	return res["file_id"], nil
}

func (c *client) fetchFile(fileId string) ([]byte, error) {
	return c.Get(fmt.Sprintf("/file/%v", fileId)).Raw()
}

func (c *client) datasetInfo(datasetId string) (schema.Dataset, error) {
	var res schema.Dataset
	err := c.Get(fmt.Sprintf("/dataset/%v", datasetId)).Do(&res)
	return res, err
}

func (c *client) listDatasets(query string) ([]schema.Dataset, error) {
	endpoint := "/datasets"
	if query != "" {
		endpoint += "?" + query
	}

	var res struct {
		Datasets []schema.Dataset `json:"datasets"`
	}
	err := c.Get(endpoint).Do(&res)
	return res.Datasets, err
}

func (c *client) recordUpdate(datasetId, version, updateType, description string) error {
	body := map[string]string{"version": version, "update_type": updateType, "description": description}
	return c.Post(fmt.Sprintf("/dataset/%v/updates", datasetId)).Json(body).Do(nil)
}

func (c *client) listUpdates(datasetId string) ([]schema.UpdateNotification, error) {
	var res struct {
		Updates []schema.UpdateNotification `json:"updates"`
	}
	err := c.Get(fmt.Sprintf("/dataset/%v/updates", datasetId)).Do(&res)
	return res.Updates, err
}
