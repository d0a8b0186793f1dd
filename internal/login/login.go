package login

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/statusdeck/statusdeck/internal/telemetry"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
)

const (
	sessionCookie = "_session"
	stateCookie   = "state"

	userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is an authenticated identity issued by the provider. The subject
// is opaque and stable; email and display name are whatever the provider
// reported at sign-in time.
type Identity struct {
	Subject     string
	Email       string
	DisplayName string
}

// OnSignIn is invoked after a successful OAuth exchange, before the session
// cookie is issued. Returning an error aborts the sign-in so a
// half-initialized session is never handed out.
type OnSignIn func(ctx context.Context, identity Identity) error

// Google implements sign-in against Google's OAuth endpoints and issues
// HMAC-signed session tokens carried in an HttpOnly cookie.
type Google struct {
	config     *oauth2.Config
	tokens     *TokenIssuer
	sessionTTL time.Duration
	onSignIn   OnSignIn
}

func NewGoogle(clientID, clientSecret, callbackURL string, sessionSecret []byte, sessionTTL time.Duration, onSignIn OnSignIn) (*Google, error) {
	if clientID == "" || clientSecret == "" || callbackURL == "" {
		return nil, fmt.Errorf("client ID, client secret, and callback URL are required")
	}

	if sessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}

	tokens, err := NewTokenIssuer(sessionSecret)
	if err != nil {
		return nil, err
	}

	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		tokens:     tokens,
		sessionTTL: sessionTTL,
		onSignIn:   onSignIn,
	}, nil
}

func (g *Google) saveState(w http.ResponseWriter) string {
	state := rand.Text()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes - enough time for the OAuth flow
	})

	return state
}

// LoginHandler starts the OAuth flow.
func (g *Google) LoginHandler(w http.ResponseWriter, r *http.Request) {
	log.Debug().Msg("Initiating Google OAuth flow")

	state := g.saveState(w)

	http.Redirect(w, r, g.config.AuthCodeURL(state), http.StatusFound)
}

// CallbackHandler completes the OAuth flow: it validates state, exchanges
// the code, fetches the user's identity, runs the sign-in hook, and issues
// the session cookie.
func (g *Google) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	log.Debug().Msg("OAuth callback received")

	state := r.FormValue("state")
	code := r.FormValue("code")

	if state == "" || code == "" {
		log.Warn().Msg("OAuth callback missing state or code")
		http.Error(w, "Authentication failed", http.StatusBadRequest)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || state != cookie.Value {
		log.Warn().Msg("OAuth callback state mismatch")
		http.Error(w, "Authentication failed", http.StatusBadRequest)
		return
	}

	// Clear the state cookie after validation
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	token, err := g.config.Exchange(r.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("OAuth code exchange failed")
		http.Error(w, "Authentication failed", http.StatusBadGateway)
		return
	}

	identity, err := g.fetchIdentity(r.Context(), token)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch user identity")
		http.Error(w, "Authentication failed", http.StatusBadGateway)
		return
	}

	if g.onSignIn != nil {
		if err := g.onSignIn(r.Context(), *identity); err != nil {
			log.Error().Err(err).Str("subject", identity.Subject).Msg("Sign-in hook failed")
			http.Error(w, "Authentication failed", http.StatusInternalServerError)
			return
		}
	}

	sessionToken, err := g.tokens.Mint(*identity, g.sessionTTL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to mint session token")
		http.Error(w, "Authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(g.sessionTTL.Seconds()),
	})

	log.Info().Str("subject", identity.Subject).Msg("User signed in")
	telemetry.GetMetrics().SignInsTotal.Add(r.Context(), 1)

	http.Redirect(w, r, "/", http.StatusFound)
}

// LogoutHandler clears the session cookie.
func (g *Google) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusFound)
}

// fetchIdentity resolves the OAuth token to the user's identity via the
// userinfo endpoint.
func (g *Google) fetchIdentity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	client := g.config.Client(ctx, token)

	resp, err := client.Get(userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request returned %d", resp.StatusCode)
	}

	var userinfo struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userinfo); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}

	if userinfo.ID == "" {
		return nil, errors.New("userinfo response missing subject")
	}

	return &Identity{
		Subject:     userinfo.ID,
		Email:       userinfo.Email,
		DisplayName: userinfo.Name,
	}, nil
}

// GetIdentity extracts and validates the identity from a request's session
// cookie.
func (g *Google) GetIdentity(r *http.Request) (*Identity, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, ErrInvalidSession
	}

	return g.tokens.Verify(cookie.Value)
}

// RequireAuth protects routes by requiring a valid session. On success the
// identity is added to the request context for the next handler.
func (g *Google) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.GetIdentity(r)
		if err != nil {
			code := "invalid"
			if errors.Is(err, ErrExpiredSession) {
				code = "expired"
			}
			log.Debug().Str("path", r.URL.Path).Str("error_code", code).Msg("Rejecting unauthenticated request")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = fmt.Fprintf(w, `{"error":"unauthorized","error_code":%q}`, code)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next(w, r.WithContext(ctx))
	}
}

// IdentityFromContext extracts the identity from the request context. This
// should be called from handlers protected by RequireAuth.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	return identity, ok
}
