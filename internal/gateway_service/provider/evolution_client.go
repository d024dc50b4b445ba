package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// EvolutionClient talks to an Evolution-compatible WhatsApp instance API.
// Authentication is a static API key sent in the "apikey" header.
type EvolutionClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewEvolutionClient creates a provider client. A nil httpClient gets a
// 30-second-timeout default.
func NewEvolutionClient(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *EvolutionClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &EvolutionClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger.With("component", "evolution_client"),
	}
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error: status %d: %s", e.StatusCode, e.Body)
}

func (c *EvolutionClient) doRequest(ctx context.Context, method, path string, reqBody, respBody any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal provider request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create provider request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WarnContext(ctx, "Provider call returned non-success status",
			"method", method, "path", path, "status", resp.StatusCode)
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if respBody != nil && len(data) > 0 {
		if err := json.Unmarshal(data, respBody); err != nil {
			return fmt.Errorf("failed to decode provider response: %w", err)
		}
	}
	return nil
}

func (c *EvolutionClient) CreateInstance(ctx context.Context, instanceName string) error {
	body := map[string]any{
		"instanceName": instanceName,
		"qrcode":       true,
	}
	return c.doRequest(ctx, http.MethodPost, "/instance/create", body, nil)
}

type connectResponse struct {
	Base64 string `json:"base64,omitempty"`
	Code   string `json:"code,omitempty"`
	QRCode *struct {
		Base64 string `json:"base64,omitempty"`
	} `json:"qrcode,omitempty"`
	Instance *struct {
		State string `json:"state,omitempty"`
	} `json:"instance,omitempty"`
}

func (c *EvolutionClient) ConnectInstance(ctx context.Context, instanceName string) (*ConnectResult, error) {
	var resp connectResponse
	if err := c.doRequest(ctx, http.MethodGet, "/instance/connect/"+url.PathEscape(instanceName), nil, &resp); err != nil {
		return nil, err
	}
	result := &ConnectResult{QRCodeBase64: resp.Base64}
	if result.QRCodeBase64 == "" && resp.QRCode != nil {
		result.QRCodeBase64 = resp.QRCode.Base64
	}
	if resp.Instance != nil {
		result.State = resp.Instance.State
	}
	return result, nil
}

func (c *EvolutionClient) ConnectionState(ctx context.Context, instanceName string) (string, error) {
	var resp struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/instance/connectionState/"+url.PathEscape(instanceName), nil, &resp); err != nil {
		return "", err
	}
	return resp.Instance.State, nil
}

func (c *EvolutionClient) LogoutInstance(ctx context.Context, instanceName string) error {
	return c.doRequest(ctx, http.MethodDelete, "/instance/logout/"+url.PathEscape(instanceName), nil, nil)
}

func (c *EvolutionClient) DeleteInstance(ctx context.Context, instanceName string) error {
	return c.doRequest(ctx, http.MethodDelete, "/instance/delete/"+url.PathEscape(instanceName), nil, nil)
}

type fetchInstancesEntry struct {
	Instance struct {
		InstanceName      string `json:"instanceName"`
		ProfileName       string `json:"profileName"`
		ProfilePictureURL string `json:"profilePictureUrl"`
		Owner             string `json:"owner"`
	} `json:"instance"`
	ContactCount int `json:"contactCount"`
	ChatCount    int `json:"chatCount"`
}

func (c *EvolutionClient) FetchInstanceInfo(ctx context.Context, instanceName string) (*InstanceInfo, error) {
	var resp []fetchInstancesEntry
	path := "/instance/fetchInstances?instanceName=" + url.QueryEscape(instanceName)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("provider reported no instance named %q", instanceName)
	}
	entry := resp[0]
	return &InstanceInfo{
		ProfileName:  entry.Instance.ProfileName,
		AvatarURL:    entry.Instance.ProfilePictureURL,
		OwnerJID:     entry.Instance.Owner,
		ContactCount: entry.ContactCount,
		ChatCount:    entry.ChatCount,
	}, nil
}

func (c *EvolutionClient) SetWebhook(ctx context.Context, instanceName, webhookURL string, events []string) error {
	body := map[string]any{
		"url":             webhookURL,
		"webhookByEvents": false,
		"events":          events,
	}
	return c.doRequest(ctx, http.MethodPost, "/webhook/set/"+url.PathEscape(instanceName), body, nil)
}

type sendTextResponse struct {
	Key    MessageKey `json:"key"`
	Status string     `json:"status"`
}

func (c *EvolutionClient) SendText(ctx context.Context, instanceName, remoteJID, text string) (*SendResult, error) {
	body := map[string]any{
		"number": remoteJID,
		"text":   text,
	}
	var resp sendTextResponse
	if err := c.doRequest(ctx, http.MethodPost, "/message/sendText/"+url.PathEscape(instanceName), body, &resp); err != nil {
		return nil, err
	}
	return &SendResult{ExternalID: resp.Key.ID, Status: resp.Status}, nil
}

func (c *EvolutionClient) FindContacts(ctx context.Context, instanceName string) ([]ContactSnapshot, error) {
	var resp []ContactSnapshot
	if err := c.doRequest(ctx, http.MethodPost, "/chat/findContacts/"+url.PathEscape(instanceName), map[string]any{}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *EvolutionClient) FetchGroups(ctx context.Context, instanceName string) ([]GroupSnapshot, error) {
	var resp []GroupSnapshot
	path := "/group/fetchAllGroups/" + url.PathEscape(instanceName) + "?getParticipants=false"
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *EvolutionClient) FindChats(ctx context.Context, instanceName string) ([]ChatSnapshot, error) {
	var resp []ChatSnapshot
	if err := c.doRequest(ctx, http.MethodPost, "/chat/findChats/"+url.PathEscape(instanceName), map[string]any{}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *EvolutionClient) FindMessages(ctx context.Context, instanceName, remoteJID string, limit int) ([]MessageSnapshot, error) {
	body := map[string]any{
		"where": map[string]any{
			"key": map[string]any{"remoteJid": remoteJID},
		},
		"limit": limit,
	}
	var resp []MessageSnapshot
	if err := c.doRequest(ctx, http.MethodPost, "/chat/findMessages/"+url.PathEscape(instanceName), body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *EvolutionClient) FetchProfilePicture(ctx context.Context, instanceName, remoteJID string) (string, error) {
	body := map[string]any{"number": remoteJID}
	var resp struct {
		ProfilePictureURL string `json:"profilePictureUrl"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/chat/fetchProfilePictureUrl/"+url.PathEscape(instanceName), body, &resp); err != nil {
		return "", err
	}
	return resp.ProfilePictureURL, nil
}
