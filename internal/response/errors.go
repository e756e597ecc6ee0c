package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrLoginMismatch ErrCode = "LOGIN_MISMATCH"
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Exam flow ─────────────────────────────────────────────────────
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"
	ErrQuestionLocked  ErrCode = "QUESTION_LOCKED"
	ErrUnknownQuestion ErrCode = "UNKNOWN_QUESTION"
	ErrWrongPage       ErrCode = "WRONG_PAGE"

	// ─── External store ────────────────────────────────────────────────
	ErrGateway ErrCode = "GATEWAY_ERROR"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrLoginMismatch:
		return "Nama dan kode tidak cocok!"
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."
	case ErrSessionNotFound:
		return "Sesi ujian tidak ditemukan."
	case ErrQuestionLocked:
		return "Kesempatan menjawab soal ini sudah habis."
	case ErrUnknownQuestion:
		return "Soal tidak ditemukan."
	case ErrWrongPage:
		return "Tindakan ini tidak diperbolehkan di halaman saat ini."
	case ErrGateway:
		return "Terjadi kesalahan saat login"
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
