package refs

import (
	"fmt"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/oid"
)

// TxState is the lifecycle state of a transaction.
type TxState int

const (
	// TxOpen accepts new updates
	TxOpen TxState = iota

	// TxPrepared has begun committing; no further mutation
	TxPrepared

	// TxClosed has committed or aborted
	TxClosed
)

// String returns a human-readable state name.
func (s TxState) String() string {
	switch s {
	case TxOpen:
		return "open"
	case TxPrepared:
		return "prepared"
	case TxClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Update is one staged reference change: a (refname, new?, old?) tuple with
// flags and an optional reflog message.
type Update struct {
	Refname string

	// New is the value to install. Meaningful only with HaveNew; the null
	// OID means deletion.
	New oid.OID

	// Old is the expected current value. Meaningful only with HaveOld; the
	// null OID means "must not exist".
	Old oid.OID

	Flags UpdateFlag

	// Msg is the reflog message for this update
	Msg string

	// ReadOID is filled by the coordinator's dereferencing pass with the
	// value the ref (or its leaf) held when the transaction prepared.
	ReadOID oid.OID

	// Bits accumulates resolution findings about the ref being updated
	Bits RefBits
}

// HasNew reports whether the update carries a new value.
func (u *Update) HasNew() bool { return u.Flags&HaveNew != 0 }

// HasOld reports whether the update carries an old-value expectation.
func (u *Update) HasOld() bool { return u.Flags&HaveOld != 0 }

// IsDelete reports whether the update removes the ref.
func (u *Update) IsDelete() bool { return u.Flags&Deleting != 0 }

// Transaction accumulates reference updates to be committed as one logical
// change. It is created by Store.NewTransaction, mutated only while open,
// and destroyed by commit or Free. It is not safe for concurrent use.
type Transaction struct {
	Updates []*Update
	State   TxState

	// Committer is the reflog identity stamped on entries this transaction
	// writes, in "Name <email>" form.
	Committer string
}

// NewTransaction creates an empty open transaction. Most callers go through
// Store.NewTransaction, which also fills in the committer identity.
func NewTransaction() *Transaction {
	return &Transaction{State: TxOpen}
}

// Update stages a change of refname to newOID. A nil newOID stages a
// verification only; a nil oldOID stages no expectation.
//
// Staging on a transaction that is no longer open panics as a BUG. Staging
// fails with GENERIC_ERROR when the name is syntactically bad while a real
// new value is given.
func (tx *Transaction) Update(refname string, newOID, oldOID *oid.OID, flags UpdateFlag, msg string) error {
	if tx.State != TxOpen {
		panic(fmt.Sprintf("BUG: update called for transaction that is %s", tx.State))
	}

	if newOID != nil {
		flags |= HaveNew
		if newOID.IsZero() {
			flags |= Deleting
		}
	}
	if oldOID != nil {
		flags |= HaveOld
	}

	if newOID != nil && !newOID.IsZero() && !CheckFormat(refname, AllowOneLevel) {
		return err.New(pkgName, err.CodeGeneric, "update",
			fmt.Sprintf("refusing to update ref with bad name %q", refname), nil)
	}

	u := &Update{
		Refname: refname,
		Flags:   flags,
		Msg:     msg,
	}
	if newOID != nil {
		u.New = *newOID
	}
	if oldOID != nil {
		u.Old = *oldOID
	}
	tx.Updates = append(tx.Updates, u)
	return nil
}

// Create stages the creation of refname with value newOID, requiring that
// the ref does not exist yet.
func (tx *Transaction) Create(refname string, newOID oid.OID, flags UpdateFlag, msg string) error {
	if newOID.IsZero() {
		panic("BUG: create called without valid new value")
	}
	zero := oid.Zero
	return tx.Update(refname, &newOID, &zero, flags, msg)
}

// Delete stages the deletion of refname. A non-nil oldOID must match the
// current value; nil means unconditional.
func (tx *Transaction) Delete(refname string, oldOID *oid.OID, flags UpdateFlag, msg string) error {
	if oldOID != nil && oldOID.IsZero() {
		panic("BUG: delete called with old value set to zeros")
	}
	zero := oid.Zero
	return tx.Update(refname, &zero, oldOID, flags, msg)
}

// Verify stages a check that refname currently holds oldOID (the null OID
// checks that the ref does not exist), with no value change.
func (tx *Transaction) Verify(refname string, oldOID oid.OID, flags UpdateFlag) error {
	return tx.Update(refname, nil, &oldOID, flags, "")
}

// Free releases the transaction in any state. Staged but uncommitted
// changes are discarded.
func (tx *Transaction) Free() {
	tx.Updates = nil
	tx.State = TxClosed
}
