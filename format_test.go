//go:build unix

package kstate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissions_String(t *testing.T) {
	assert.Equal(t, "read", Read.String())
	assert.Equal(t, "write", Write.String())
	assert.Equal(t, "read|write", (Read | Write).String())
	assert.Equal(t, "<no permissions>", Permissions(0).String())
}

func TestState_String(t *testing.T) {
	setShmDir(t)

	s := NewState()
	assert.Equal(t, "State <unsubscribed>", s.String())

	require.NoError(t, s.Subscribe("Fred.A", Read|Write))
	defer s.Close()

	assert.Equal(t, fmt.Sprintf("State %d on 'Fred.A' for read|write", s.ID()), s.String())
}

func TestTransaction_String(t *testing.T) {
	setShmDir(t)

	txn := NewTransaction()
	assert.Equal(t, "Transaction <not active>", txn.String())

	s := mustSubscribe(t, "Fred.A", Read|Write)
	require.NoError(t, txn.Start(s, Read))
	defer txn.Close()

	assert.Equal(t, fmt.Sprintf("Transaction %d for read on 'Fred.A'", txn.ID()), txn.String())
}
