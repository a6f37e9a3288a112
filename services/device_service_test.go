package services

import (
	"testing"

	"github.com/xeikhprince488/mansolehubtraining-sub000/model"
)

func strPtr(s string) *string { return &s }

func TestEvaluateAccessNoPurchase(t *testing.T) {
	decision := EvaluateAccess(nil, "abcdef0123456789", nil)

	if decision.Allowed {
		t.Error("expected access denied without a purchase")
	}
	if decision.Reason != ReasonNotPurchased {
		t.Errorf("expected reason %q, got %q", ReasonNotPurchased, decision.Reason)
	}
}

func TestEvaluateAccessLockDisabled(t *testing.T) {
	purchase := &model.Purchase{
		IsDeviceLocked:    false,
		DeviceFingerprint: strPtr("aaaa0123456789aa"),
	}

	decision := EvaluateAccess(purchase, "bbbb0123456789bb", nil)
	if !decision.Allowed {
		t.Error("expected access allowed when the device lock is disabled")
	}
	if decision.IsFirstTime {
		t.Error("lock-disabled access must not report first time")
	}
}

func TestEvaluateAccessFirstDevice(t *testing.T) {
	purchase := &model.Purchase{IsDeviceLocked: true}

	decision := EvaluateAccess(purchase, "abcdef0123456789", nil)
	if !decision.Allowed {
		t.Error("expected the first device to be allowed")
	}
	if !decision.IsFirstTime {
		t.Error("expected IsFirstTime for an unbound purchase")
	}
}

func TestEvaluateAccessBoundDeviceMatches(t *testing.T) {
	fp := "abcdef0123456789"
	purchase := &model.Purchase{
		IsDeviceLocked:    true,
		DeviceFingerprint: &fp,
	}

	decision := EvaluateAccess(purchase, fp, nil)
	if !decision.Allowed {
		t.Error("expected the bound device to be allowed")
	}
	if decision.IsFirstTime {
		t.Error("repeat access from the bound device must not report first time")
	}
}

func TestEvaluateAccessUnknownDeviceDenied(t *testing.T) {
	purchase := &model.Purchase{
		IsDeviceLocked:    true,
		DeviceFingerprint: strPtr("abcdef0123456789"),
	}

	decision := EvaluateAccess(purchase, "ffff0123456789ff", nil)
	if decision.Allowed {
		t.Error("expected an unknown device to be denied")
	}
	if decision.Reason != ReasonDeviceNotAuthorized {
		t.Errorf("expected reason %q, got %q", ReasonDeviceNotAuthorized, decision.Reason)
	}
}

func TestEvaluateAccessAllowListEntry(t *testing.T) {
	purchase := &model.Purchase{
		IsDeviceLocked:    true,
		DeviceFingerprint: strPtr("abcdef0123456789"),
	}

	granted := &model.DeviceAccess{DeviceFingerprint: "ffff0123456789ff"}
	decision := EvaluateAccess(purchase, "ffff0123456789ff", granted)
	if !decision.Allowed {
		t.Error("expected a granted secondary device to be allowed")
	}

	granted.IsBlocked = true
	decision = EvaluateAccess(purchase, "ffff0123456789ff", granted)
	if decision.Allowed {
		t.Error("expected a blocked secondary device to be denied")
	}
	if decision.Reason != ReasonDeviceNotAuthorized {
		t.Errorf("expected reason %q, got %q", ReasonDeviceNotAuthorized, decision.Reason)
	}
}

func TestEvaluateAccessEmptyFingerprintAgainstBoundDevice(t *testing.T) {
	purchase := &model.Purchase{
		IsDeviceLocked:    true,
		DeviceFingerprint: strPtr("abcdef0123456789"),
	}

	decision := EvaluateAccess(purchase, "", nil)
	if decision.Allowed {
		t.Error("expected a missing fingerprint to be denied once a device is bound")
	}
}
