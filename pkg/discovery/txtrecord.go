package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/cpswtree/catree/pkg/version"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeIOCTXT creates TXT records for an IOC advertisement.
func EncodeIOCTXT(info *IOCInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	// Required fields
	v := info.Version
	if v == "" {
		v = version.Current
	}
	txt[TXTKeyVersion] = v
	txt[TXTKeyRecordPrefix] = info.Namer.RecordPrefix

	// Optional fields
	if info.Namer.HashPrefix != "" {
		txt[TXTKeyHashPrefix] = info.Namer.HashPrefix
	}
	if info.Namer.MaxLen > 0 {
		txt[TXTKeyMaxLen] = strconv.Itoa(info.Namer.MaxLen)
	}
	if info.Records > 0 {
		txt[TXTKeyRecords] = strconv.Itoa(info.Records)
	}
	if info.Root != "" {
		txt[TXTKeyRoot] = info.Root
	}

	return txt
}

// DecodeIOCTXT parses TXT records from an IOC advertisement.
func DecodeIOCTXT(txt TXTRecordMap) (*IOCInfo, error) {
	info := &IOCInfo{}

	var ok bool
	info.Version, ok = txt[TXTKeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	if _, err := version.Parse(info.Version); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTXTRecord, TXTKeyVersion, err)
	}

	// An empty record prefix is legal, a missing one is not.
	info.Namer.RecordPrefix, ok = txt[TXTKeyRecordPrefix]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyRecordPrefix)
	}

	info.Namer.HashPrefix = txt[TXTKeyHashPrefix]

	if s, ok := txt[TXTKeyMaxLen]; ok {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidTXTRecord, TXTKeyMaxLen, s)
		}
		info.Namer.MaxLen = n
	}

	if s, ok := txt[TXTKeyRecords]; ok {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidTXTRecord, TXTKeyRecords, s)
		}
		info.Records = n
	}

	info.Root = txt[TXTKeyRoot]

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value" strings.
// This format is commonly used by mDNS libraries.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// TXTSize returns the wire size of the records: one length byte plus the
// "key=value" bytes per entry.
func TXTSize(txt TXTRecordMap) int {
	n := 0
	for k, v := range txt {
		n += 1 + len(k) + 1 + len(v)
	}
	return n
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

func joinHostPort(host string, port uint16) string {
	return net.JoinHostPort(host, strconv.Itoa(int(port)))
}
