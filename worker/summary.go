package worker

import (
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/tinylib/msgp/msgp"

	"github.com/catalyst-cloud/objectmigrate/cmn"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// summaryJSON is the wire shape written by --summary-json; kept
// separate from Report so Report can hold a time.Duration while the
// summary files hold a plain seconds float, which both jsoniter and a
// hand-rolled msgp encoding can agree on.
type summaryJSON struct {
	RunID        string                `json:"run_id"`
	ElapsedSecs  float64               `json:"elapsed_seconds"`
	Containers   int64                 `json:"containers"`
	Objects      int64                 `json:"objects"`
	Bytes        int64                 `json:"bytes"`
	TopTenants   []cmn.TenantUsageEntry `json:"top_tenants"`
}

func (r *Report) toWire() summaryJSON {
	return summaryJSON{
		RunID:       r.RunID,
		ElapsedSecs: r.Elapsed.Seconds(),
		Containers:  r.Containers,
		Objects:     r.Objects,
		Bytes:       r.Bytes,
		TopTenants:  r.TopTenants,
	}
}

// WriteJSON writes the run summary as JSON via jsoniter to path.
func (r *Report) WriteJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return cmn.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return cmn.Wrap(enc.Encode(r.toWire()), "encode summary json")
}

// WriteMsgp writes the run summary in MessagePack form to path. The
// encoding is hand-written against msgp's runtime primitives rather
// than generated, since there is no code-generation step in this
// build; the wire shape mirrors summaryJSON field-for-field.
func (r *Report) WriteMsgp(path string) error {
	w := r.toWire()

	var b []byte
	b = msgp.AppendMapHeader(b, 6)

	b = msgp.AppendString(b, "run_id")
	b = msgp.AppendString(b, w.RunID)

	b = msgp.AppendString(b, "elapsed_seconds")
	b = msgp.AppendFloat64(b, w.ElapsedSecs)

	b = msgp.AppendString(b, "containers")
	b = msgp.AppendInt64(b, w.Containers)

	b = msgp.AppendString(b, "objects")
	b = msgp.AppendInt64(b, w.Objects)

	b = msgp.AppendString(b, "bytes")
	b = msgp.AppendInt64(b, w.Bytes)

	b = msgp.AppendString(b, "top_tenants")
	b = msgp.AppendArrayHeader(b, uint32(len(w.TopTenants)))
	for _, e := range w.TopTenants {
		b = msgp.AppendMapHeader(b, 2)
		b = msgp.AppendString(b, "name")
		b = msgp.AppendString(b, e.Name)
		b = msgp.AppendString(b, "bytes")
		b = msgp.AppendInt64(b, e.Bytes)
	}

	f, err := os.Create(path)
	if err != nil {
		return cmn.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	_, err = f.Write(b)
	return cmn.Wrap(err, "write msgp summary")
}
