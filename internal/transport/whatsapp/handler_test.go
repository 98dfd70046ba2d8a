package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitre-bot/maitre"
	"github.com/maitre-bot/maitre/pkg/adapters/memory"
	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/flow"
	"github.com/maitre-bot/maitre/pkg/ports"
	"github.com/maitre-bot/maitre/pkg/registry"
	"github.com/maitre-bot/maitre/pkg/schema"
	"github.com/maitre-bot/maitre/pkg/session"
)

func newTestSessions(t *testing.T) *session.Manager {
	t.Helper()
	table, err := flow.New(
		domain.State{
			ID: "INIT",
			Template: &domain.Template{
				Kind: domain.TemplateButton,
				Body: "Welcome!",
				Options: []domain.Option{
					{Label: "Start", Token: "go"},
				},
			},
			Next: map[domain.Token]string{"go": "NAME"},
		},
		domain.State{
			ID:        "NAME",
			Prompt:    "Your name?",
			Validator: schema.Schema{"name": schema.String()},
			Next:      map[domain.Token]string{domain.TokenOK: "DONE"},
		},
		domain.State{
			ID:     "DONE",
			Prompt: "Thanks!",
			Action: "COMPLETE_SIGNUP",
		},
		domain.State{
			ID:        "WAITING",
			Prompt:    "Waiting for payment.",
			Validator: schema.Schema{"note": schema.String()},
		},
		domain.State{ID: "PAID", Prompt: "Payment received!"},
	)
	require.NoError(t, err)

	engine, err := maitre.New(table, registry.New())
	require.NoError(t, err)
	return session.NewManager(engine, memory.NewStore())
}

func postForm(t *testing.T, handler http.Handler, path string, form url.Values, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for name, values := range header {
		req.Header[name] = values
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Webhook(t *testing.T) {
	srv := NewServer(newTestSessions(t))
	handler := srv.Handler()

	t.Run("First Contact Greets", func(t *testing.T) {
		rec := postForm(t, handler, "/webhook", url.Values{
			"From": {"whatsapp:+972501234567"},
			"Body": {"hi"},
		}, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "<Response>")
		assert.Contains(t, rec.Body.String(), "Welcome!")
		// Options degrade to text lines with the reply token.
		assert.Contains(t, rec.Body.String(), "reply *go*")
	})

	t.Run("Second Message Advances", func(t *testing.T) {
		rec := postForm(t, handler, "/webhook", url.Values{
			"From": {"whatsapp:+972501234567"},
			"Body": {"go"},
		}, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Your name?")
	})

	t.Run("Missing From Is Bad Request", func(t *testing.T) {
		rec := postForm(t, handler, "/webhook", url.Values{"Body": {"hi"}}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Webhook_SignatureVerification(t *testing.T) {
	const authToken = "secret-token"
	srv := NewServer(newTestSessions(t), WithAuthToken(authToken))
	handler := srv.Handler()

	form := url.Values{
		"From": {"whatsapp:+972501234567"},
		"Body": {"hi"},
	}

	t.Run("Rejects Missing Signature", func(t *testing.T) {
		rec := postForm(t, handler, "/webhook", form, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Rejects Bad Signature", func(t *testing.T) {
		rec := postForm(t, handler, "/webhook", form, http.Header{
			SignatureHeader: {"bogus"},
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Accepts Valid Signature", func(t *testing.T) {
		// httptest requests carry no TLS and no forwarding headers, so
		// the signed URL matches what requestURL reconstructs.
		signature := sign(authToken, "http://example.com/webhook", form)
		rec := postForm(t, handler, "http://example.com/webhook", form, http.Header{
			SignatureHeader: {signature},
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestServer_Webhook_DispatchesActions(t *testing.T) {
	var mu sync.Mutex
	var dispatched []string

	sessions := newTestSessions(t)
	srv := NewServer(sessions, WithDispatcher(
		ports.DispatcherFunc(func(ctx context.Context, req *domain.ActionRequest) error {
			mu.Lock()
			defer mu.Unlock()
			dispatched = append(dispatched, req.Name)
			return nil
		})))
	handler := srv.Handler()

	from := url.Values{"From": {"whatsapp:+15550001111"}}
	steps := []string{"hello", "go", "Alice"}
	for _, body := range steps {
		form := url.Values{"From": from["From"], "Body": {body}}
		rec := postForm(t, handler, "/webhook", form, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"COMPLETE_SIGNUP"}, dispatched)
}

func TestServer_PaymentConfirmation(t *testing.T) {
	sessions := newTestSessions(t)
	srv := NewServer(sessions, WithPaymentState("PAID"))
	handler := srv.Handler()

	// Open a conversation and park it on the holding state.
	_, err := sessions.Handle(context.Background(), "whatsapp:+15550002222", "")
	require.NoError(t, err)
	_, err = sessions.Override(context.Background(), "whatsapp:+15550002222", "WAITING")
	require.NoError(t, err)

	rec := postForm(t, handler, "/payments/whatsapp:+15550002222/confirm", url.Values{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	result, err := sessions.Handle(context.Background(), "whatsapp:+15550002222", "anything")
	require.NoError(t, err)
	assert.Equal(t, "PAID", result.Conversation.Current)
}

func TestServer_Healthz(t *testing.T) {
	srv := NewServer(newTestSessions(t))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMessageText(t *testing.T) {
	plain := domain.RenderedPrompt{Kind: domain.TemplateText, Body: "Just text"}
	assert.Equal(t, "Just text", messageText(plain))

	withOptions := domain.RenderedPrompt{
		Kind: domain.TemplateButton,
		Body: "Pick one",
		Options: []domain.Option{
			{Label: "Credit card", Token: "credit_card"},
			{Label: "Bank transfer", Token: "bank_transfer"},
		},
	}
	got := messageText(withOptions)
	assert.Contains(t, got, "Pick one")
	assert.Contains(t, got, "- Credit card: reply *credit_card*")
	assert.Contains(t, got, "- Bank transfer: reply *bank_transfer*")
}
