package backend

import (
	"context"
	"net/http"
	"strconv"

	"onpointe/prevention/internal/domain"
)

// SlotInput is the body of setMyAvailability.
type SlotInput struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
	Note  string `json:"note"`
}

// RedeemResult tells a dancer which PT and thread a code linked them to.
type RedeemResult struct {
	PTID     string `json:"ptId"`
	ThreadID string `json:"threadId"`
}

func (c *Client) GetMyDancers(ctx context.Context) ([]domain.DancerSummary, error) {
	var resp struct {
		Dancers []domain.DancerSummary `json:"dancers"`
	}
	if err := c.call(ctx, http.MethodGet, "getMyDancers", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Dancers, nil
}

func (c *Client) GetDancerRecentCheckins(ctx context.Context, dancerID string, limit int) ([]domain.CheckIn, error) {
	var resp struct {
		Items []domain.CheckIn `json:"items"`
	}
	q := params("dancerId", dancerID, "limit", strconv.Itoa(limit))
	if err := c.call(ctx, http.MethodGet, "getDancerRecentCheckins", nil, q, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) GetMyAvailability(ctx context.Context) ([]domain.AvailabilitySlot, error) {
	return c.slots(ctx, "getMyAvailability")
}

func (c *Client) GetLinkedPTAvailability(ctx context.Context) ([]domain.AvailabilitySlot, error) {
	return c.slots(ctx, "getLinkedPtAvailability")
}

func (c *Client) slots(ctx context.Context, path string) ([]domain.AvailabilitySlot, error) {
	var resp struct {
		Slots []domain.AvailabilitySlot `json:"slots"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Slots, nil
}

func (c *Client) SetMyAvailability(ctx context.Context, slot SlotInput) error {
	return c.call(ctx, http.MethodPost, "setMyAvailability", slot, nil, nil)
}

func (c *Client) DeleteMyAvailability(ctx context.Context, slotID string) error {
	return c.call(ctx, http.MethodPost, "deleteMyAvailability", map[string]string{"slotId": slotID}, nil, nil)
}

func (c *Client) GetMyThreads(ctx context.Context) ([]domain.ThreadSummary, error) {
	var resp struct {
		Threads []domain.ThreadSummary `json:"threads"`
	}
	if err := c.call(ctx, http.MethodGet, "getMyThreads", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Threads, nil
}

func (c *Client) SendMessage(ctx context.Context, threadID, text string) error {
	body := map[string]string{"threadId": threadID, "text": text}
	return c.call(ctx, http.MethodPost, "sendMessage", body, nil, nil)
}

func (c *Client) MarkThreadRead(ctx context.Context, threadID string) error {
	return c.call(ctx, http.MethodPost, "markThreadRead", map[string]string{"threadId": threadID}, nil, nil)
}

func (c *Client) MarkAlertReviewed(ctx context.Context, alertID string) error {
	return c.call(ctx, http.MethodPost, "markAlertReviewed", map[string]string{"alertId": alertID}, nil, nil)
}

func (c *Client) GeneratePTCode(ctx context.Context) (string, error) {
	var resp struct {
		Code string `json:"code"`
	}
	if err := c.call(ctx, http.MethodPost, "generatePtCode", struct{}{}, nil, &resp); err != nil {
		return "", err
	}
	return resp.Code, nil
}

func (c *Client) RedeemPTCode(ctx context.Context, code string) (RedeemResult, error) {
	var resp RedeemResult
	err := c.call(ctx, http.MethodPost, "redeemPtCode", map[string]string{"code": code}, nil, &resp)
	return resp, err
}

func (c *Client) SeedDemoData(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "seedDemoData", struct{}{}, nil, nil)
}

// ExportDancerReport returns a temporary download URL for the report.
func (c *Client) ExportDancerReport(ctx context.Context, dancerID string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.call(ctx, http.MethodPost, "exportDancerReport", map[string]string{"dancerId": dancerID}, nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
