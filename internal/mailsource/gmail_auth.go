package mailsource

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailtriage/internal/services"
)

// ErrTokenMissing indicates no cached OAuth token exists yet.
var ErrTokenMissing = errors.New("gmail token not found")

// OAuthConfig parses a Google client secret file for the modify scope.
func OAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "gmail", "read credentials", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(data, gmail.GmailModifyScope)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "gmail", "parse credentials", credentialsFile, err)
	}
	return cfg, nil
}

// LoadToken reads a cached OAuth token.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTokenMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open token: %w", err)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	return tok, nil
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open token for write: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return nil
}

// Authorize runs the out-of-band consent flow: it prints the consent URL to
// out, reads the authorization code from in, and exchanges it for a token.
func Authorize(ctx context.Context, cfg *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(out, "Open the following link in your browser, approve access, then paste the authorization code:\n%s\n\nCode: ", authURL)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return nil, errors.New("authorization code is empty")
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "gmail", "exchange code", "", err)
	}
	return tok, nil
}

// NewGmailService builds an authorized Gmail client from the credential and
// token files. Refreshed tokens are written back to tokenFile.
func NewGmailService(ctx context.Context, credentialsFile, tokenFile string) (*gmail.Service, error) {
	cfg, err := OAuthConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(tokenFile)
	if err != nil {
		if errors.Is(err, ErrTokenMissing) {
			return nil, services.Wrap(services.ErrConfiguration, "gmail", "load token", "run 'mailtriage auth gmail' first", err)
		}
		return nil, err
	}
	src := &persistingTokenSource{
		base: cfg.TokenSource(ctx, tok),
		path: tokenFile,
		last: tok.AccessToken,
	}
	svc, err := gmail.NewService(ctx, option.WithTokenSource(oauth2.ReuseTokenSource(tok, src)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

type persistingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := SaveToken(s.path, tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}
