/*
Copyright © 2024 the slstr authors.
This file is part of slstr.

slstr is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

slstr is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with slstr.  If not, see <http://www.gnu.org/licenses/>.
*/

package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultURL is the address of the EUMETSAT Data Store API.
const DefaultURL = "https://api.eumetsat.int"

// Client makes authenticated requests to the Data Store.
type Client struct {
	// BaseURL is the API address. Tokens are requested from
	// BaseURL + "/token".
	BaseURL string

	HTTPClient  *http.Client
	Credentials Credentials
}

// NewClient returns a client for the public Data Store API.
func NewClient(creds Credentials) *Client {
	return &Client{
		BaseURL:     DefaultURL,
		HTTPClient:  http.DefaultClient,
		Credentials: creds,
	}
}

// AccessToken is a bearer token for API requests.
type AccessToken struct {
	Value      string
	Expiration time.Time
}

func (t *AccessToken) String() string { return t.Value }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Token requests a new access token using the client credentials.
func (c *Client) Token(ctx context.Context) (*AccessToken, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.BaseURL, "/")+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("datastore: %v", err)
	}
	req.SetBasicAuth(c.Credentials.Key, c.Credentials.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("datastore: requesting token: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("datastore: requesting token: %s", statusError(resp))
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("datastore: decoding token: %v", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("datastore: token response has no access_token")
	}
	t := &AccessToken{
		Value:      tr.AccessToken,
		Expiration: time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}
	logrus.WithField("expires", t.Expiration.Format(time.RFC3339)).Info("datastore: obtained access token")
	return t, nil
}

// Download fetches the zipped product at productURL, extracts it into
// destDir and returns the path of the extracted SAFE directory.
func (c *Client) Download(ctx context.Context, productURL, destDir string) (string, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, productURL, nil)
	if err != nil {
		return "", fmt.Errorf("datastore: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Value)

	log := logrus.WithField("url", productURL)
	log.Info("datastore: downloading product")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("datastore: downloading %s: %v", productURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("datastore: downloading %s: %s", productURL, statusError(resp))
	}

	if err := os.MkdirAll(destDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("datastore: creating download directory: %v", err)
	}
	zf, err := os.CreateTemp(destDir, "product-*.zip")
	if err != nil {
		return "", fmt.Errorf("datastore: creating file for download: %v", err)
	}
	defer os.Remove(zf.Name())
	n, err := io.Copy(zf, resp.Body)
	if cerr := zf.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("datastore: downloading %s: %v", productURL, err)
	}
	log.WithField("bytes", n).Debug("datastore: download complete")

	safe, err := unzip(zf.Name(), destDir)
	if err != nil {
		return "", err
	}
	if safe == "" {
		return "", fmt.Errorf("datastore: product %s contains no SAFE directory", path.Base(productURL))
	}
	log.WithField("safe", safe).Info("datastore: extracted product")
	return filepath.Join(destDir, safe), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func statusError(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if msg := strings.TrimSpace(string(b)); msg != "" {
		return fmt.Sprintf("%s: %s", resp.Status, msg)
	}
	return resp.Status
}
