package utils

type IpAddressError struct {
	Address string
}

type UnknownSourceError struct {
	Name string
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (e IpAddressError) Error() string {
	if e.Address == "" {
		return "invalid IP address"
	}

	return "invalid IP address: " + e.Address
}

func (e UnknownSourceError) Error() string {
	return "unknown source " + e.Name
}
