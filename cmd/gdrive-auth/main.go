// Command gdrive-auth runs the OAuth consent flow once and prints the refresh
// token to put in GDRIVE_REFRESH_TOKEN.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"

	"reelstudio/internal/config"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/pkg/logger"
)

const consentTimeout = 3 * time.Minute

func main() {
	logCfg := logger.DefaultConfig()
	logCfg.ServiceName = "reelstudio-gdrive-auth"
	log := logger.New(logCfg)

	clientID, err := config.MustEnv("GDRIVE_CLIENT_ID")
	if err != nil {
		log.LogFatal("missing client id", err)
	}
	clientSecret, err := config.MustEnv("GDRIVE_CLIENT_SECRET")
	if err != nil {
		log.LogFatal("missing client secret", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.LogFatal("failed to open callback listener", err)
	}
	defer ln.Close()

	redirectURL := fmt.Sprintf("http://127.0.0.1:%d/callback", ln.Addr().(*net.TCPAddr).Port)
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
		RedirectURL:  redirectURL,
	}

	state := randomState()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code, err := callbackCode(r, state)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			errCh <- err
			return
		}
		fmt.Fprintln(w, "Authorized. You can close this window.")
		codeCh <- code
	})

	srv := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()

	// prompt=consent forces Google to issue a refresh token again.
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("\nOpen this URL in your browser:\n\n%s\n\n", authURL)
	log.Info("waiting for authorization", "redirect_url", redirectURL)

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		_ = srv.Close()
		log.LogFatal("authorization failed", err)
	case <-time.After(consentTimeout):
		_ = srv.Close()
		log.LogFatal("authorization failed", errors.Timeout("oauth consent"))
	}
	_ = srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		log.LogFatal("token exchange failed", err)
	}

	if strings.TrimSpace(tok.RefreshToken) == "" {
		log.Warn("no refresh token returned; revoke the app at https://myaccount.google.com/permissions and run again")
		return
	}
	fmt.Printf("\nGDRIVE_REFRESH_TOKEN=%s\n", tok.RefreshToken)
}

func callbackCode(r *http.Request, state string) (string, error) {
	q := r.URL.Query()
	if q.Get("state") != state {
		return "", errors.Validation("invalid state")
	}
	if e := q.Get("error"); e != "" {
		return "", errors.Unauthorized("auth error: " + e)
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.Validation("missing code")
	}
	return code, nil
}

func randomState() string {
	b := make([]byte, 18)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
