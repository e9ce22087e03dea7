// Package i18n maps error keys to user-facing messages.
package i18n

import (
	"net/http"

	"golang.org/x/text/language"
)

var supported = []language.Tag{
	language.English,
	language.Korean,
}

var matcher = language.NewMatcher(supported)

var catalogs = map[string]map[string]string{
	"en": {
		"auth/invalid-credential":      "Incorrect email or password.",
		"auth/email-already-in-use":    "This email is already in use.",
		"auth/weak-password":           "Password must be at least 6 characters.",
		"auth/invalid-email":           "Invalid email address.",
		"auth/user-disabled":           "This account has been disabled.",
		"auth/user-not-found":          "No account found for this user.",
		"auth/session-expired":         "Your session has expired. Please sign in again.",
		"validation/required":          "Please fill in all required fields.",
		"validation/invalid":           "Some fields are invalid.",
		"validation/mismatch":          "Passwords do not match.",
		"validation/unchanged":         "Nothing has changed.",
		"validation/location-required": "Click the map to choose a location.",
		"validation/invalid-category":  "Unknown category.",
		"confirmation-required":        "Please confirm the deletion.",
		"not-found":                    "The item could not be found.",
		"storage":                      "An error occurred while uploading the file.",
		"data-access":                  "An error occurred while processing your request.",
		"external":                     "The external service is unavailable.",
		"session-unknown":              "Your session could not be verified. Please retry.",
		"nav/home":                     "Home",
		"nav/gallery":                  "Gallery",
		"nav/map":                      "Memory Map",
		"nav/messages":                 "Messages",
		"nav/timeline":                 "Timeline",
		"nav/settings":                 "Settings",
		"nav/signout":                  "Sign out",
		"app/title":                    "Our Memories",
		"app/loading":                  "Loading...",
		"ws/invalid-message":           "The message could not be read.",
		"ws/unknown-message-type":      "Unknown message type.",
		"ws/unknown-collection":        "Unknown collection.",
		"ws/no-view":                   "Select a collection first.",
		"ws/fetch-in-progress":         "Still loading. Please wait.",
		"internal":                     "Something went wrong.",
	},
	"ko": {
		"auth/invalid-credential":      "이메일 또는 비밀번호가 올바르지 않습니다.",
		"auth/email-already-in-use":    "이미 사용 중인 이메일입니다.",
		"auth/weak-password":           "비밀번호는 최소 6자 이상이어야 합니다.",
		"auth/invalid-email":           "유효하지 않은 이메일 형식입니다.",
		"auth/user-disabled":           "비활성화된 계정입니다.",
		"auth/user-not-found":          "등록되지 않은 사용자입니다.",
		"auth/session-expired":         "세션이 만료되었습니다. 다시 로그인해주세요.",
		"validation/required":          "필수 항목을 모두 입력해주세요.",
		"validation/invalid":           "입력값이 올바르지 않습니다.",
		"validation/mismatch":          "비밀번호가 일치하지 않습니다.",
		"validation/unchanged":         "변경된 내용이 없습니다.",
		"validation/location-required": "지도를 클릭하여 위치를 선택해주세요.",
		"validation/invalid-category":  "알 수 없는 카테고리입니다.",
		"confirmation-required":        "삭제를 확인해주세요.",
		"not-found":                    "항목을 찾을 수 없습니다.",
		"storage":                      "파일 업로드 중 오류가 발생했습니다.",
		"data-access":                  "요청을 처리하는 중 오류가 발생했습니다.",
		"external":                     "외부 서비스를 사용할 수 없습니다.",
		"session-unknown":              "세션을 확인할 수 없습니다. 다시 시도해주세요.",
		"nav/home":                     "홈",
		"nav/gallery":                  "갤러리",
		"nav/map":                      "추억 지도",
		"nav/messages":                 "메시지",
		"nav/timeline":                 "타임라인",
		"nav/settings":                 "설정",
		"nav/signout":                  "로그아웃",
		"app/title":                    "우리의 추억 저장소",
		"app/loading":                  "불러오는 중...",
		"ws/invalid-message":           "메시지를 읽을 수 없습니다.",
		"ws/unknown-message-type":      "알 수 없는 메시지 유형입니다.",
		"ws/unknown-collection":        "알 수 없는 컬렉션입니다.",
		"ws/no-view":                   "먼저 컬렉션을 선택해주세요.",
		"ws/fetch-in-progress":         "불러오는 중입니다. 잠시만 기다려주세요.",
		"internal":                     "오류가 발생했습니다.",
	},
}

// FromRequest picks the best supported language for the request's Accept-Language header
func FromRequest(r *http.Request) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, index, _ := matcher.Match(tags...)
	return supported[index]
}

// Message returns the localized message for key, falling back to English and then to the key itself
func Message(tag language.Tag, key string) string {
	base, _ := tag.Base()
	if msg, ok := catalogs[base.String()][key]; ok {
		return msg
	}
	if msg, ok := catalogs["en"][key]; ok {
		return msg
	}
	return key
}
