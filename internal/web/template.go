package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/shift-chain/internal/shift"
	"github.com/sweeney/shift-chain/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	// pins lists pin levels highest pin first, matching the binary column.
	"pins": func(r shift.Register) []bool {
		out := make([]bool, r.Width)
		for n := 0; n < r.Width; n++ {
			out[r.Width-1-n] = r.Pin(n)
		}
		return out
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Shifter</title>
<style>
body { font-family: monospace; max-width: 800px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.pin { display: inline-block; width: 10px; height: 10px; border-radius: 50%; margin-right: 2px; }
.pin.on { background: green; }
.pin.off { background: #ddd; }
.connected { color: green; }
.disconnected { color: red; }
.error { color: red; }
</style>
</head>
<body>
<h1>Shifter</h1>

<h2>Registers</h2>
<table>
<tr><th>#</th><th>Pins</th><th>State</th><th>Outputs</th></tr>
{{range $i, $r := .Registers}}<tr><td>{{$i}}</td><td>{{$r.Width}}</td><td>{{$r.String}}</td><td>{{range pins $r}}<span class="pin {{if .}}on{{else}}off{{end}}"></span>{{end}}</td></tr>
{{else}}<tr><td colspan="4">no registers</td></tr>
{{end}}</table>

<h2>Chain</h2>
<table>
<tr><th>Polarity</th><td>{{if .Inverted}}inverted{{else}}normal{{end}}</td></tr>
<tr><th>Applies</th><td>{{.Applies}}</td></tr>
<tr><th>Last apply</th><td>{{if .LastApply.IsZero}}never{{else}}{{.LastApply.UTC.Format "2006-01-02T15:04:05Z"}}{{end}}</td></tr>
{{if .LastError}}<tr><th>Last error</th><td class="error">{{.LastError}}</td></tr>{{end}}
<tr><th>Lines</th><td>{{.Config.Chip}} data={{.Config.PinData}} latch={{.Config.PinLatch}} clock={{.Config.PinClock}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
