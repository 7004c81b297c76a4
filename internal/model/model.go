// internal/model/model.go
package model

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/tamzrod/modbus-collector/internal/address"
	"github.com/tamzrod/modbus-collector/internal/decode"
)

// ProtocolModbusTCP is the only protocol the collector drives.
const ProtocolModbusTCP = "ModbusTCP"

// PlcConfig is one row of the plcs table. It is read once per generation and
// never mutated afterwards.
type PlcConfig struct {
	ID            int
	Name          string
	Host          string
	Port          int
	Protocol      string
	Manufacturer  address.Manufacturer
	AddressOffset int
	Timeout       time.Duration
	RetryCount    int
	WordOrder     decode.WordOrder
}

// Endpoint returns host:port.
func (p PlcConfig) Endpoint() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// IsModbusTCP matches the protocol column case-insensitively ("ModbusTCP", "modbus_tcp").
func (p PlcConfig) IsModbusTCP() bool {
	k := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(p.Protocol))
	return k == "modbustcp"
}

// MonitoringTable is a group of tags polled together from one PLC.
type MonitoringTable struct {
	ID              int
	Name            string
	PLC             PlcConfig
	PollingInterval time.Duration
	Active          bool
}

// Tag is one scalar signal on a PLC.
type Tag struct {
	ID          int
	TableID     int
	Name        string
	Address     string
	DataType    string
	Unit        string
	Description string
	Active      bool
}

// Measurement is one stored sample. Booleans are 0/1.
type Measurement struct {
	TagID     int
	Timestamp time.Time
	Value     float64
}

// Level is the severity of a system log entry as stored.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// SystemLogEntry is the operator-facing failure record. Exception carries the
// technical detail; empty means none.
type SystemLogEntry struct {
	Level     Level
	Message   string
	Exception string
	PlcID     *int
	CreatedAt time.Time
}
