package axis

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/sarchlab/axisverif/sim"
)

// Fields are the payload values used to create a Transaction.
type Fields struct {
	Data *big.Int
	Strb uint64
	Keep uint64
	Last bool
	ID   uint64
	Dest uint64
	User uint64
}

// A Transaction is one beat of a stream transfer. It cannot be modified after
// creation.
type Transaction struct {
	id     string
	seq    uint64
	widths Widths

	data  *big.Int
	strb  uint64
	keep  uint64
	last  bool
	tid   uint64
	tdest uint64
	tuser uint64
}

// NewTransaction creates a transaction after checking every field against the
// widths. A value that does not fit is a ProtocolMismatchError.
func NewTransaction(w Widths, seq uint64, f Fields) (*Transaction, error) {
	data := new(big.Int)
	if f.Data != nil {
		data.Set(f.Data)
	}

	if data.Sign() < 0 || data.BitLen() > w.Data {
		return nil, &ProtocolMismatchError{
			Field: "tdata", Want: w.Data, Got: data.BitLen(),
		}
	}

	masks := []struct {
		field string
		width int
		value uint64
	}{
		{"tstrb", w.StrobeWidth(), f.Strb},
		{"tkeep", w.StrobeWidth(), f.Keep},
		{"tid", w.ID, f.ID},
		{"tdest", w.Dest, f.Dest},
		{"tuser", w.User, f.User},
	}

	for _, m := range masks {
		if m.value&^Mask(m.width) != 0 {
			return nil, &ProtocolMismatchError{
				Field: m.field,
				Want:  m.width,
				Got:   bits.Len64(m.value),
			}
		}
	}

	return &Transaction{
		id:     sim.GetIDGenerator().Generate(),
		seq:    seq,
		widths: w,
		data:   data,
		strb:   f.Strb,
		keep:   f.Keep,
		last:   f.Last,
		tid:    f.ID,
		tdest:  f.Dest,
		tuser:  f.User,
	}, nil
}

// ID returns the unique ID of the transaction.
func (t *Transaction) ID() string { return t.id }

// Seq returns the position of the transaction in the sequence that created
// it.
func (t *Transaction) Seq() uint64 { return t.seq }

// Widths returns the widths the transaction was created with.
func (t *Transaction) Widths() Widths { return t.widths }

// Data returns a copy of the data field.
func (t *Transaction) Data() *big.Int { return new(big.Int).Set(t.data) }

// Strb returns the byte strobe mask.
func (t *Transaction) Strb() uint64 { return t.strb }

// Keep returns the byte keep mask.
func (t *Transaction) Keep() uint64 { return t.keep }

// Last tells if the transaction ends a packet.
func (t *Transaction) Last() bool { return t.last }

// TID returns the stream identifier.
func (t *Transaction) TID() uint64 { return t.tid }

// TDest returns the routing destination.
func (t *Transaction) TDest() uint64 { return t.tdest }

// TUser returns the user sideband value.
func (t *Transaction) TUser() uint64 { return t.tuser }

// IsZero tells if the data field is all zeros.
func (t *Transaction) IsZero() bool {
	return t.data.Sign() == 0
}

// IsAllOnes tells if the data field is all ones.
func (t *Transaction) IsAllOnes() bool {
	return t.data.Cmp(t.widths.MaxData()) == 0
}

// Equal compares the payload of two transactions. IDs and sequence numbers are
// not part of the payload.
func (t *Transaction) Equal(o *Transaction) bool {
	if t == nil || o == nil {
		return t == o
	}

	return t.widths == o.widths &&
		t.data.Cmp(o.data) == 0 &&
		t.strb == o.strb &&
		t.keep == o.keep &&
		t.last == o.last &&
		t.tid == o.tid &&
		t.tdest == o.tdest &&
		t.tuser == o.tuser
}

func (t *Transaction) String() string {
	return fmt.Sprintf(
		"#%d data=%#x strb=%#x keep=%#x last=%t id=%d dest=%d user=%d",
		t.seq, t.data, t.strb, t.keep, t.last, t.tid, t.tdest, t.tuser,
	)
}
