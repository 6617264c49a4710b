package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CreditWorthy/kstate"
)

func testSession(t *testing.T) (*session, string) {
	t.Helper()
	sess := newSession()
	t.Cleanup(sess.close)
	return sess, kstate.UniqueName("kstatecli")
}

func TestRun_SubscribeDumpCommit(t *testing.T) {
	sess, name := testSession(t)

	out, err := sess.run("sub " + name)
	require.NoError(t, err)
	assert.Contains(t, out, name)
	assert.Contains(t, out, "read|write")

	out, err = sess.run("dump 16")
	require.NoError(t, err)
	assert.Contains(t, out, "00000000")

	_, err = sess.run("begin")
	require.NoError(t, err)

	_, err = sess.run("set 0 12345678")
	require.NoError(t, err)

	out, err = sess.run("commit")
	require.NoError(t, err)
	assert.Equal(t, "committed", out)

	out, err = sess.run("dump 4")
	require.NoError(t, err)
	assert.Contains(t, out, "12 34 56 78")
}

func TestRun_AbortDiscards(t *testing.T) {
	sess, name := testSession(t)

	_, err := sess.run("sub " + name)
	require.NoError(t, err)
	_, err = sess.run("begin")
	require.NoError(t, err)
	_, err = sess.run("set 0 ff")
	require.NoError(t, err)

	out, err := sess.run("abort")
	require.NoError(t, err)
	assert.Equal(t, "aborted", out)

	out, err = sess.run("dump 1")
	require.NoError(t, err)
	assert.NotContains(t, out, "ff")
}

func TestRun_ReadOnlyCommitForbidden(t *testing.T) {
	sess, name := testSession(t)

	_, err := sess.run("sub " + name)
	require.NoError(t, err)
	_, err = sess.run("begin ro")
	require.NoError(t, err)

	_, err = sess.run("commit")
	require.Error(t, err)
	assert.Equal(t, -1, kstate.Errno(err))

	_, err = sess.run("abort")
	require.NoError(t, err)
}

func TestRun_Errors(t *testing.T) {
	sess, _ := testSession(t)

	_, err := sess.run("bogus")
	assert.ErrorIs(t, err, errUsage)

	_, err = sess.run("dump")
	require.Error(t, err)

	_, err = sess.run("commit")
	assert.ErrorIs(t, err, kstate.ErrNotActive)

	_, err = sess.run("set 0 zz")
	require.Error(t, err)
}

func TestRun_Info(t *testing.T) {
	sess, _ := testSession(t)

	out, err := sess.run("info")
	require.NoError(t, err)
	assert.Contains(t, out, "State <unsubscribed>")
	assert.Contains(t, out, "Transaction <not active>")
}

func TestRun_Unique(t *testing.T) {
	sess, _ := testSession(t)

	out, err := sess.run("unique demo")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "demo."))
}

func TestDecodeHex(t *testing.T) {
	b, err := decodeHex("0x12ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0xff}, b)

	_, err = decodeHex("")
	assert.Error(t, err)
	_, err = decodeHex("xyz")
	assert.Error(t, err)
}
