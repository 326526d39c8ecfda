package storage

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

// translationRule pairs a message predicate with the code it resolves to.
// Rules form a prioritized chain: the first match wins and no later rule is
// consulted.
type translationRule struct {
	match func(msg string) bool
	code  ErrorCode
}

func containsAny(subs ...string) func(string) bool {
	return func(msg string) bool {
		for _, s := range subs {
			if strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}
}

func containsAll(subs ...string) func(string) bool {
	return func(msg string) bool {
		for _, s := range subs {
			if !strings.Contains(msg, s) {
				return false
			}
		}
		return true
	}
}

// translationRules is evaluated top to bottom. The ordering is load-bearing:
// a message containing both "insufficient" and "timeout" classifies as
// INSUFFICIENT_FUNDS because that rule is checked first.
var translationRules = []translationRule{
	{containsAny("insufficient", "balance", "funds"), CodeInsufficientFunds},
	{containsAny("timeout", "timed out"), CodeUploadTimeout},
	{containsAny("network", "connection", "econnrefused", "enotfound"), CodeNetworkError},
	{containsAny("not found", "404"), CodeNotFound},
	{containsAny("provider", "unavailable", "503"), CodeProviderUnavailable},
	{containsAny("deal"), CodeDealFailed},
	{containsAny("piececid", "piece cid", "invalid cid"), CodeInvalidCID},
	{containsAll("cid", "invalid"), CodeInvalidCID},
	{containsAll("upload", "fail"), CodeUploadFailed},
}

// Translate maps an opaque SDK or runtime error to a StorageError by
// case-insensitive substring matching on its message. Already-classified
// errors pass through unchanged, so translation is idempotent and never
// wraps its own output. The raw error is logged for operator diagnostics;
// callers only ever see the fixed user message.
func Translate(err error) *StorageError {
	var se *StorageError
	if errors.As(err, &se) {
		return se
	}

	if err == nil {
		return NewError(CodeUnknown, "Unknown error")
	}

	zap.L().Error("storage operation failed", zap.Error(err))

	msg := strings.ToLower(err.Error())
	for _, rule := range translationRules {
		if rule.match(msg) {
			return NewError(rule.code, err.Error())
		}
	}
	return NewError(CodeUnknown, err.Error())
}
