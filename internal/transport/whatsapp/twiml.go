package whatsapp

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/maitre-bot/maitre/pkg/domain"
)

// twiML is the minimal response document Twilio expects from a messaging
// webhook.
type twiML struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// messageText flattens a prompt into plain WhatsApp text. Twilio's TwiML
// surface has no native buttons, so options degrade to lines showing the
// reply token next to the label.
func messageText(p domain.RenderedPrompt) string {
	if len(p.Options) == 0 {
		return p.Body
	}
	var b strings.Builder
	b.WriteString(p.Body)
	for _, opt := range p.Options {
		fmt.Fprintf(&b, "\n- %s: reply *%s*", opt.Label, opt.Token)
	}
	return b.String()
}

// writeTwiML answers the webhook with the rendered prompt.
func writeTwiML(w http.ResponseWriter, p domain.RenderedPrompt) {
	doc := twiML{Message: messageText(p)}
	out, err := xml.Marshal(doc)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	w.Write(out)
}
