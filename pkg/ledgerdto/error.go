package ledgerdto

// Error is the wire shape of every failed response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "ledger error"
}

// Error codes carried in the body alongside the HTTP status.
const (
	CodeNotFound        = "not_found"
	CodeForbidden       = "forbidden"
	CodeConflict        = "conflict"
	CodeInvalidMove     = "invalid_move"
	CodeInvalidArgument = "invalid_argument"
	CodeInternal        = "internal"
)
