package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"guard-lab/domain"
	"log/slog"
	"net/http"
	"time"
)

// APIClient is the outbound half of the platform boundary: a JSON
// client against the send collaborator's HTTP surface. It implements
// contract.Sender, contract.UserResolver, and contract.ChatAdminChecker.
type APIClient struct {
	base string
	http *http.Client
	log  *slog.Logger
}

func NewAPIClient(base string, timeout time.Duration, log *slog.Logger) *APIClient {
	return &APIClient{
		base: base,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

func (c *APIClient) SendText(ctx context.Context, chat domain.ChatID, text string) error {
	payload := map[string]any{"chat_id": int64(chat), "text": text}
	return c.post(ctx, "sendText", payload, nil)
}

func (c *APIClient) DeleteMessage(ctx context.Context, ref domain.MessageRef) error {
	payload := map[string]any{"chat_id": int64(ref.ChatID), "message_id": ref.MessageID}
	return c.post(ctx, "deleteMessage", payload, nil)
}

func (c *APIClient) ForwardMessage(ctx context.Context, ref domain.MessageRef, dest domain.ChatID) error {
	payload := map[string]any{
		"from_chat_id": int64(ref.ChatID),
		"message_id":   ref.MessageID,
		"chat_id":      int64(dest),
	}
	return c.post(ctx, "forwardMessage", payload, nil)
}

func (c *APIClient) CopyMessage(ctx context.Context, ref domain.MessageRef, dest domain.ChatID) error {
	payload := map[string]any{
		"from_chat_id": int64(ref.ChatID),
		"message_id":   ref.MessageID,
		"chat_id":      int64(dest),
	}
	return c.post(ctx, "copyMessage", payload, nil)
}

func (c *APIClient) ResolveUser(ctx context.Context, handleOrID string) (domain.User, error) {
	var out wireUser
	if err := c.post(ctx, "resolveUser", map[string]any{"query": handleOrID}, &out); err != nil {
		return domain.User{}, err
	}
	return toUser(out), nil
}

func (c *APIClient) IsChatAdmin(ctx context.Context, chat domain.ChatID, user domain.UserID) (bool, error) {
	var out struct {
		Admin bool `json:"admin"`
	}
	payload := map[string]any{"chat_id": int64(chat), "user_id": int64(user)}
	if err := c.post(ctx, "chatAdmin", payload, &out); err != nil {
		return false, err
	}
	return out.Admin, nil
}

func (c *APIClient) post(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/%s", c.base, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
