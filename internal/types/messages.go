package types

import "fmt"

type localized struct {
	ko string
	en string
}

func (m localized) in(lang Language) string {
	if lang == LangEnglish {
		return m.en
	}
	return m.ko
}

var errorMessages = map[ErrorCode]localized{
	ErrInvalidReference: {
		ko: "올바른 YouTube 주소가 아닙니다",
		en: "Invalid YouTube URL",
	},
	ErrUpstreamInitTimeout: {
		ko: "영상 서비스 연결 시간이 초과되었습니다. 잠시 후 다시 시도해주세요.",
		en: "Timed out connecting to the video service. Please try again later.",
	},
	ErrUpstreamInfoTimeout: {
		ko: "영상 정보를 불러오는 시간이 초과되었습니다. 잠시 후 다시 시도해주세요.",
		en: "Timed out loading the video information. Please try again later.",
	},
	ErrVideoTooLong: {
		ko: "영상이 너무 깁니다. 1시간 이하의 영상을 선택해주세요.",
		en: "Video is too long. Please choose a video under 1 hour.",
	},
	ErrTranscriptUnavailable: {
		ko: "이 영상은 자막을 제공하지 않습니다. 자막이 있는 영상을 선택해주세요.",
		en: "This video doesn't have captions. Please choose a video with captions available.",
	},
	ErrNoTranscriptContent: {
		ko: "영상에 기록할 내용이 없습니다",
		en: "No content to transcribe",
	},
	ErrCompletionProvider: {
		ko: "요약 서비스에 일시적인 문제가 있습니다. 잠시 후 다시 시도해주세요.",
		en: "Summary service is temporarily unavailable. Please try again later.",
	},
	ErrCompletionStream: {
		ko: "요약을 받는 중 연결이 끊어졌습니다. 다시 시도해주세요.",
		en: "The summary stream was interrupted. Please try again.",
	},
	ErrUnknown: {
		ko: "알 수 없는 오류가 발생했습니다. 잠시 후 다시 시도해주세요.",
		en: "An unknown error occurred. Please try again later.",
	},
}

var (
	msgEmptyURL = localized{
		ko: "영상 주소를 입력해주세요",
		en: "Please enter a video URL",
	}
	msgReading = localized{
		ko: "영상의 지혜를 읽는 중...",
		en: "Reading the wisdom...",
	}
	msgSummarizing = localized{
		ko: "지혜를 기록하는 중...",
		en: "Transcribing wisdom...",
	}
	msgMisconfigured = localized{
		ko: "서비스 설정에 문제가 있습니다",
		en: "Service configuration error",
	}
	msgQuota = localized{
		ko: "오늘의 요약 횟수를 모두 사용하셨습니다. %d시간 후에 다시 이용 가능합니다.",
		en: "Daily limit reached. Try again in %d hours.",
	}
	msgProviderStatus = localized{
		ko: "요약 서비스 오류 (API Error: %d)",
		en: "API Error: %d",
	}
)

// ErrorMessage returns the caller-facing text for an error code.
func ErrorMessage(code ErrorCode, lang Language) string {
	if m, ok := errorMessages[code]; ok {
		return m.in(lang)
	}
	return errorMessages[ErrUnknown].in(lang)
}

func EmptyURLMessage(lang Language) string { return msgEmptyURL.in(lang) }

func ReadingStatus(lang Language) string { return msgReading.in(lang) }

func SummarizingStatus(lang Language) string { return msgSummarizing.in(lang) }

func MisconfiguredMessage(lang Language) string { return msgMisconfigured.in(lang) }

// QuotaMessage tells the caller how many whole hours remain until the window resets.
func QuotaMessage(lang Language, hours int) string {
	return fmt.Sprintf(msgQuota.in(lang), hours)
}

func ProviderStatusMessage(lang Language, status int) string {
	return fmt.Sprintf(msgProviderStatus.in(lang), status)
}
