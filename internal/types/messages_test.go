package types

import "testing"

func TestErrorMessageCoversCodes(t *testing.T) {
	codes := []ErrorCode{
		ErrInvalidReference, ErrUpstreamInitTimeout, ErrUpstreamInfoTimeout,
		ErrVideoTooLong, ErrTranscriptUnavailable, ErrNoTranscriptContent,
		ErrCompletionProvider, ErrCompletionStream, ErrUnknown,
	}
	for _, code := range codes {
		for _, lang := range []Language{LangKorean, LangEnglish} {
			if ErrorMessage(code, lang) == "" {
				t.Errorf("no %s message for %s", lang, code)
			}
		}
	}
}

func TestErrorMessageFallsBackToUnknown(t *testing.T) {
	got := ErrorMessage(ErrorCode("SOMETHING_NEW"), LangEnglish)
	if got != ErrorMessage(ErrUnknown, LangEnglish) {
		t.Errorf("unexpected fallback message %q", got)
	}
}

func TestQuotaMessage(t *testing.T) {
	if got := QuotaMessage(LangEnglish, 5); got != "Daily limit reached. Try again in 5 hours." {
		t.Errorf("QuotaMessage(en) = %q", got)
	}
	if got := ProviderStatusMessage(LangEnglish, 502); got != "API Error: 502" {
		t.Errorf("ProviderStatusMessage(en) = %q", got)
	}
}
