package liveresp

// Wire DTOs for the Live Response v6 REST surface. Only the fields this
// client consumes are declared.

// Device is one endpoint sensor known to the backend.
type Device struct {
	ID                    int64  `json:"id"`
	Name                  string `json:"name"`
	LastInternalIPAddress string `json:"last_internal_ip_address"`
	OS                    string `json:"os"`
	Status                string `json:"status"`
}

type deviceSearchRequest struct {
	Query string `json:"query,omitempty"`
	Rows  int    `json:"rows,omitempty"`
}

type deviceSearchResponse struct {
	Results []Device `json:"results"`
}

// Session statuses reported by the backend.
const (
	sessionPending = "PENDING"
	sessionActive  = "ACTIVE"
)

// Command statuses reported by the backend.
const (
	commandComplete = "COMPLETE"
	commandError    = "ERROR"
	commandCanceled = "CANCELED"
)

type sessionRequest struct {
	DeviceID int64 `json:"device_id"`
}

type sessionResponse struct {
	ID          string      `json:"id"`
	DeviceID    int64       `json:"device_id"`
	Status      string      `json:"status"`
	SessionData sessionData `json:"session_data"`
}

type sessionData struct {
	Drives []string `json:"drives"`
	OSType int      `json:"os_type"`
}

// Command names understood by the live response agent.
const (
	cmdRegEnumKey    = "reg enum key"
	cmdDirectoryList = "directory list"
	cmdGetFile       = "get file"
)

type commandRequest struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

type commandResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Result string `json:"result_details,omitempty"`

	// reg enum key
	SubKeys []string    `json:"sub_keys,omitempty"`
	Values  []wireValue `json:"values,omitempty"`

	// directory list
	Files []wireFile `json:"files,omitempty"`

	// get file
	FileID string `json:"file_id,omitempty"`
}

// wireValue is one registry value record in the backend's string encoding.
type wireValue struct {
	RegistryName string `json:"registry_name"`
	RegistryData string `json:"registry_data"`
	RegistryType string `json:"registry_type"`
}

type wireFile struct {
	Filename   string   `json:"filename"`
	Size       int64    `json:"size"`
	Attributes []string `json:"attributes"`
	ModifyTime int64    `json:"modify_time"` // unix seconds
}
