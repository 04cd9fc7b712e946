// Package auth builds client options for the google cloud clients and asks the
// user for data transfer authorization codes.
package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"google.golang.org/api/option"
)

const (
	AuthorizationURL = "https://www.gstatic.com/bigquerydatatransfer/oauthz/auth"
	RedirectURI      = "urn:ietf:wg:oauth:2.0:oob"
	CloudPlatform    = "https://www.googleapis.com/auth/cloud-platform"
)

type Config struct {
	Credentials string `flag:"credentials" desc:"service account key file, application default credentials when empty" default:""`
	Quota       string `flag:"quota-project" desc:"project billed for api quota" default:""`
}

// ClientOptions returns the options shared by every google cloud client.
func ClientOptions(config *Config) ([]option.ClientOption, error) {
	opts := []option.ClientOption{option.WithScopes(CloudPlatform)}

	if config.Credentials != "" {
		if _, err := os.Stat(config.Credentials); err != nil {
			return nil, fmt.Errorf("service account key file %q not found: %w", config.Credentials, err)
		}
		opts = append(opts, option.WithCredentialsFile(config.Credentials))
	}
	if config.Quota != "" {
		opts = append(opts, option.WithQuotaProject(config.Quota))
	}

	return opts, nil
}

// ConsentURL is the page where a user authorizes a data source and receives
// an authorization code.
func ConsentURL(clientID string, scopes []string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("scope", strings.Join(scopes, " "))
	q.Set("redirect_uri", RedirectURI)

	return fmt.Sprintf("%s?%s", AuthorizationURL, strings.ReplaceAll(q.Encode(), "+", "%20"))
}

type Prompter interface {
	AuthorizationCode(ctx context.Context, app, clientID string, scopes []string) (string, error)
}

var ErrNoAuthorizationCode = errors.New("no authorization code entered")

// Terminal asks for the code on an interactive terminal.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

func (t *Terminal) AuthorizationCode(ctx context.Context, app, clientID string, scopes []string) (string, error) {
	fmt.Fprintf(t.Out, "Please open the URL below to authorize %s and paste the authorization code.\n", app)
	fmt.Fprintf(t.Out, "URL - %s\n", ConsentURL(clientID, scopes))
	fmt.Fprint(t.Out, "Authorization Code : ")

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		line, err := bufio.NewReader(t.In).ReadString('\n')
		ch <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		code := strings.TrimSpace(r.line)
		if code == "" {
			if r.err != nil && !errors.Is(r.err, io.EOF) {
				return "", r.err
			}
			return "", ErrNoAuthorizationCode
		}
		return code, nil
	}
}
