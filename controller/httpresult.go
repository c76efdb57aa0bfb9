package controller

// HTTPResult mirrors original_source/src/utils.h's HTTP_RQT_* codes, per
// spec.md §7: every outbound special-station and weather HTTP call
// resolves to one of these, logged and swallowed on anything but success.
type HTTPResult int

const (
	HTTPResultSuccess HTTPResult = iota
	HTTPResultConnectError
	HTTPResultTimeout
	HTTPResultEmptyReturn
	HTTPResultNotReceived
)

func (r HTTPResult) String() string {
	switch r {
	case HTTPResultSuccess:
		return "SUCCESS"
	case HTTPResultConnectError:
		return "CONNECT_ERR"
	case HTTPResultTimeout:
		return "TIMEOUT"
	case HTTPResultEmptyReturn:
		return "EMPTY_RETURN"
	case HTTPResultNotReceived:
		return "NOT_RECEIVED"
	default:
		return "UNKNOWN"
	}
}
