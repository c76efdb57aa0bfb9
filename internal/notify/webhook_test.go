package notify

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sprinklerd/sprinklerd/controller"
)

func TestWebhookSinkSendsExpectedForm(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = r.Form
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL)
	val := uint32(42)
	if err := s.Send(controller.Event{Kind: controller.EventFlowSensor, Uint: &val}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotForm.Get("kind") != "flow_sensor" || gotForm.Get("value") != "42" {
		t.Fatalf("unexpected form: %v", gotForm)
	}
}

func TestWebhookSinkErrorsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL)
	if err := s.Send(controller.Event{Kind: controller.EventRainDelay}); err == nil {
		t.Fatal("expected an error on a 500 response")
	}
}
