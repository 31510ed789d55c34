package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"firebase.google.com/go/v4/messaging"

	"notifier/internal/notify"
)

// Mock FCM client recording every multicast
type mockMulticast struct {
	messages []*messaging.MulticastMessage
	failIdx  map[int]bool
	err      error
	// callErr fails only the n-th request
	callErr  map[int]error
}

func (m *mockMulticast) SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	m.messages = append(m.messages, msg)
	if m.err != nil {
		return nil, m.err
	}
	if err := m.callErr[len(m.messages)-1]; err != nil {
		return nil, err
	}

	resp := &messaging.BatchResponse{}
	for i := range msg.Tokens {
		if m.failIdx[i] {
			resp.FailureCount++
			resp.Responses = append(resp.Responses, &messaging.SendResponse{Error: errors.New("invalid token")})
			continue
		}
		resp.SuccessCount++
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true, MessageID: "m"})
	}
	return resp, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testNotification() notify.Notification {
	return notify.Notification{
		Title:    "Ivan commented on your post",
		Body:     "nice shot",
		Sound:    notify.DefaultSound,
		ImageURL: "https://media.local/p1.jpg",
		Data:     map[string]string{"postId": "p1", "type": "comment"},
	}
}

func TestFCMDispatcher_BuildsMulticast(t *testing.T) {
	client := &mockMulticast{}
	d := NewFCMDispatcherWithClient(client, testLogger())

	if err := d.Dispatch(context.Background(), []string{"t1", "t2"}, testNotification()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(client.messages) != 1 {
		t.Fatalf("Expected 1 multicast, got %d", len(client.messages))
	}

	msg := client.messages[0]
	if !reflect.DeepEqual(msg.Tokens, []string{"t1", "t2"}) {
		t.Errorf("Expected tokens [t1 t2], got %v", msg.Tokens)
	}
	if msg.Notification.Title != "Ivan commented on your post" || msg.Notification.Body != "nice shot" {
		t.Errorf("Unexpected notification %+v", msg.Notification)
	}
	if msg.Notification.ImageURL != "https://media.local/p1.jpg" {
		t.Errorf("Unexpected image URL %q", msg.Notification.ImageURL)
	}
	if msg.Android.Notification.Sound != "default" || msg.APNS.Payload.Aps.Sound != "default" {
		t.Error("Expected default sound on both platforms")
	}
	if msg.Data["type"] != "comment" || msg.Data["postId"] != "p1" {
		t.Errorf("Unexpected data %v", msg.Data)
	}
}

func TestFCMDispatcher_BatchesLargeTokenSets(t *testing.T) {
	tokens := make([]string, 1201)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("token-%d", i)
	}

	client := &mockMulticast{}
	d := NewFCMDispatcherWithClient(client, testLogger())

	if err := d.Dispatch(context.Background(), tokens, testNotification()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var sizes []int
	for _, m := range client.messages {
		sizes = append(sizes, len(m.Tokens))
	}
	if !reflect.DeepEqual(sizes, []int{500, 500, 201}) {
		t.Errorf("Expected batches [500 500 201], got %v", sizes)
	}
}

func TestFCMDispatcher_TokenFailuresAreNotReturned(t *testing.T) {
	client := &mockMulticast{failIdx: map[int]bool{0: true}}
	d := NewFCMDispatcherWithClient(client, testLogger())

	if err := d.Dispatch(context.Background(), []string{"stale-token-123", "t2"}, testNotification()); err != nil {
		t.Errorf("Expected per-token failures to be swallowed, got %v", err)
	}
}

func TestFCMDispatcher_RequestFailureIsReturned(t *testing.T) {
	sendErr := errors.New("quota exceeded")
	d := NewFCMDispatcherWithClient(&mockMulticast{err: sendErr}, testLogger())

	if err := d.Dispatch(context.Background(), []string{"t1"}, testNotification()); !errors.Is(err, sendErr) {
		t.Errorf("Expected request error, got %v", err)
	}
}

func TestFCMDispatcher_FailedBatchDoesNotBlockOthers(t *testing.T) {
	tokens := make([]string, 1201)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("token-%d", i)
	}

	sendErr := errors.New("unavailable")
	client := &mockMulticast{callErr: map[int]error{0: sendErr}}
	d := NewFCMDispatcherWithClient(client, testLogger())

	err := d.Dispatch(context.Background(), tokens, testNotification())
	if !errors.Is(err, sendErr) {
		t.Errorf("Expected batch error to be returned, got %v", err)
	}
	if len(client.messages) != 3 {
		t.Errorf("Expected all 3 batches to be attempted, got %d", len(client.messages))
	}
}

func TestNew_Modes(t *testing.T) {
	d, err := New(context.Background(), Config{Mode: ModeLog}, testLogger())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := d.(*LogDispatcher); !ok {
		t.Errorf("Expected LogDispatcher, got %T", d)
	}
	if err := d.Dispatch(context.Background(), []string{"t1"}, testNotification()); err != nil {
		t.Errorf("Unexpected error from log dispatcher: %v", err)
	}

	if _, err := New(context.Background(), Config{Mode: "sms"}, testLogger()); err == nil {
		t.Error("Expected error for unsupported mode")
	}
}

func TestTokenPrefix(t *testing.T) {
	if got := tokenPrefix("short"); got != "short" {
		t.Errorf("Expected short token unchanged, got %q", got)
	}
	if got := tokenPrefix("abcdefghijkl"); got != "abcdefgh..." {
		t.Errorf("Expected truncated token, got %q", got)
	}
}
