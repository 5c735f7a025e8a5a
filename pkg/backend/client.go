package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dentaldesk/voicedesk/pkg/errorsx"
	"github.com/dentaldesk/voicedesk/pkg/resilience"
)

// RegistrationClient talks to the practice backend's registration API.
// Calls are retried on transient failure; the service key authenticates
// service-to-service traffic.
type RegistrationClient struct {
	BaseURL    string
	ServiceKey string
	Client     *http.Client
	Retry      resilience.RetryPolicy
}

func NewRegistrationClient(baseURL, serviceKey string) *RegistrationClient {
	return &RegistrationClient{
		BaseURL:    baseURL,
		ServiceKey: serviceKey,
		Client:     &http.Client{Timeout: 30 * time.Second},
		Retry:      resilience.NewRetryPolicy(2, 200*time.Millisecond),
	}
}

func (c *RegistrationClient) CreateRegistration(ctx context.Context, tenantID string, intake RegistrationIntake) (RegistrationResult, error) {
	dob, err := ParseDate(intake.DateOfBirth)
	if err != nil {
		return RegistrationResult{}, errorsx.Wrap(fmt.Errorf("parse dob: %w", err), errorsx.ReasonToolBadArgument)
	}
	payload := map[string]any{
		"phone":          NormalizePhone(intake.Phone),
		"firstName":      intake.FirstName,
		"lastName":       intake.LastName,
		"dateOfBirth":    dob.Format("2006-01-02"),
		"reasonForVisit": intake.ReasonForVisit,
		"callId":         intake.CallID,
		"agentId":        intake.AgentID,
		"tenantId":       tenantID,
	}

	var result RegistrationResult
	err = c.Retry.Do(func() error {
		resp, err := c.post(ctx, "/api/register/voice-intake", payload)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("voice-intake status %d: %s", resp.StatusCode, body)
		}
		var decoded struct {
			RegistrationTokenID string `json:"registrationTokenId"`
			RegistrationURL     string `json:"registrationUrl"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return err
		}
		result = RegistrationResult{TokenID: decoded.RegistrationTokenID, URL: decoded.RegistrationURL}
		return nil
	})
	if err != nil {
		return RegistrationResult{}, errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	return result, nil
}

func (c *RegistrationClient) RegistrationStatus(ctx context.Context, tenantID, phone string) (RegistrationStatus, error) {
	var status RegistrationStatus
	err := c.Retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.BaseURL+"/api/register/status/"+NormalizePhone(phone), nil)
		if err != nil {
			return err
		}
		c.applyHeaders(req)
		resp, err := c.client().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			// No status record is a normal outcome, not an error.
			status = RegistrationStatus{}
			return nil
		}
		var decoded struct {
			HasActiveRegistration bool   `json:"hasActiveRegistration"`
			Stage                 string `json:"stage"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return err
		}
		status = RegistrationStatus{Active: decoded.HasActiveRegistration, Stage: decoded.Stage}
		return nil
	})
	if err != nil {
		return RegistrationStatus{}, errorsx.Wrap(err, errorsx.ReasonBackendCall)
	}
	return status, nil
}

func (c *RegistrationClient) ResendRegistrationLink(ctx context.Context, tenantID, phone string) error {
	err := c.Retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.BaseURL+"/api/register/resend-sms/"+NormalizePhone(phone), nil)
		if err != nil {
			return err
		}
		c.applyHeaders(req)
		resp, err := c.client().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("resend-sms status %d: %s", resp.StatusCode, body)
		}
		return nil
	})
	return errorsx.Wrap(err, errorsx.ReasonBackendCall)
}

func (c *RegistrationClient) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)
	return c.client().Do(req)
}

func (c *RegistrationClient) applyHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.ServiceKey != "" {
		req.Header.Set("X-Service-Key", c.ServiceKey)
	}
}

func (c *RegistrationClient) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}
