package payment

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
	"github.com/xeikhprince488/mansolehubtraining-sub000/services"
	"github.com/xeikhprince488/mansolehubtraining-sub000/utils/response"
)

func TestSubmitPaymentWithoutStorageClient(t *testing.T) {
	// Boot without a storage client mirrors running with no storage
	// credentials configured. Submissions must be refused with a proper
	// envelope instead of panicking on the nil client.
	h := NewPaymentHandler(nil, nil, nil, nil, nil)

	app := fiber.New()
	app.Post("/manual-payment", h.SubmitPayment)

	req := httptest.NewRequest(fiber.MethodPost, "/manual-payment", strings.NewReader(""))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusServiceUnavailable)
	}

	var body response.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success {
		t.Error("success = true, want false")
	}
	if body.Error == nil || body.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("error = %+v, want code SERVICE_UNAVAILABLE", body.Error)
	}
}

func TestPurchaseStatusKeepsOwnershipAndDeviceVerdictApart(t *testing.T) {
	bound := "a1b2c3d4e5f60718a1b2c3d4e5f60718"
	purchase := &model.Purchase{
		ID:                42,
		CourseID:          7,
		CustomerEmail:     "buyer@example.com",
		DeviceFingerprint: &bound,
		IsDeviceLocked:    true,
		CreatedAt:         time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		IPAddress:         "203.0.113.7",
	}

	denied := services.AccessDecision{Allowed: false, Reason: services.ReasonDeviceNotAuthorized}
	status := purchaseStatus(purchase, denied)

	if !status.HasPurchase {
		t.Error("HasPurchase = false for a purchase holder on a denied device")
	}
	if status.HasAccess {
		t.Error("HasAccess = true for a denied device")
	}
	if status.Purchase == nil {
		t.Fatal("Purchase payload missing")
	}
	if status.Purchase.ID != 42 || status.Purchase.CourseID != 7 {
		t.Errorf("purchase payload = %+v, want id 42 course 7", status.Purchase)
	}
	if !status.Purchase.IsDeviceLocked {
		t.Error("IsDeviceLocked not carried into the payload")
	}

	// The payload is sanitized: no bound fingerprint, no audit fields
	raw, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, secret := range []string{bound, "203.0.113.7", "customer_email"} {
		if strings.Contains(string(raw), secret) {
			t.Errorf("status payload leaks %q: %s", secret, raw)
		}
	}

	allowed := services.AccessDecision{Allowed: true, IsFirstTime: true}
	status = purchaseStatus(purchase, allowed)
	if !status.HasPurchase || !status.HasAccess || !status.IsFirstTime {
		t.Errorf("allowed status = %+v, want purchase, access and first-time all set", status)
	}
}
