package gen

import (
	"github.com/brianvoe/gofakeit/v7"
)

// Shared lists for synthetic eve event generation.

type signature struct {
	ID       int64
	Text     string
	Category string
	Severity int
}

// RandomSignature returns a random alert signature from the catalog.
func RandomSignature() signature {
	return Signatures[gofakeit.Number(0, len(Signatures)-1)]
}

var Signatures = []signature{
	{2100498, "GPL ATTACK_RESPONSE id check returned root", "Potentially Bad Traffic", 2},
	{2010935, "ET SCAN Suspicious inbound to MSSQL port 1433", "Potentially Bad Traffic", 2},
	{2010937, "ET SCAN Suspicious inbound to mySQL port 3306", "Potentially Bad Traffic", 2},
	{2023753, "ET SCAN MS Terminal Server Traffic on Non-standard Port", "Attempted Information Leak", 2},
	{2001219, "ET SCAN Potential SSH Scan", "Attempted Information Leak", 2},
	{2001984, "ET SCAN SSH BruteForce Tool with fake PUTTY version", "Attempted Information Leak", 2},
	{2402000, "ET DROP Dshield Block Listed Source group 1", "Misc Attack", 2},
	{2403300, "ET CINS Active Threat Intelligence Poor Reputation IP", "Misc Attack", 2},
	{2013028, "ET POLICY curl User-Agent Outbound", "Attempted Information Leak", 2},
	{2018959, "ET POLICY PE EXE or DLL Windows file download HTTP", "Potential Corporate Privacy Violation", 1},
	{2027863, "ET INFO Observed DNS Query to .cloud TLD", "Potentially Bad Traffic", 2},
	{2260002, "SURICATA Applayer Detect protocol only one direction", "Generic Protocol Command Decode", 3},
}

// RandomAppProto returns a random application protocol name.
func RandomAppProto() string {
	return AppProtos[gofakeit.Number(0, len(AppProtos)-1)]
}

var AppProtos = []string{
	"http", "tls", "dns", "ssh", "smtp", "ftp", "smb", "dhcp", "failed",
}

// RandomDNSName returns a random queried domain.
func RandomDNSName() string {
	return DNSNames[gofakeit.Number(0, len(DNSNames)-1)]
}

var DNSNames = []string{
	"example.com", "www.example.com", "google.com", "www.google.com",
	"api.github.com", "cdn.jsdelivr.net", "pool.ntp.org", "updates.suricata.io",
	"ocsp.digicert.com", "telemetry.mozilla.org", "mirror.fedoraproject.org",
}

// RandomSensor returns a random sensor hostname.
func RandomSensor() string {
	return Sensors[gofakeit.Number(0, len(Sensors)-1)]
}

var Sensors = []string{
	"fw-east", "fw-west", "dmz-tap", "core-span",
}
