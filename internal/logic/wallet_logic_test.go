package logic

import (
	"testing"
	"time"

	"github.com/blues/ifs/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "0xAbC0000000000000000000000000000000000001"

func TestIssueNonceLowercasesAddress(t *testing.T) {
	db := newTestDB(t)
	lg := NewWalletLogic(db)

	nonce, err := lg.IssueNonce(testWallet)
	require.NoError(t, err)
	assert.Equal(t, "0xabc0000000000000000000000000000000000001", nonce.WalletAddress)
	assert.NotEmpty(t, nonce.Nonce)
	assert.True(t, nonce.ExpiresAt.After(time.Now()))

	_, err = lg.IssueNonce("")
	assert.Error(t, err)
}

func TestConsumeNonceOnce(t *testing.T) {
	db := newTestDB(t)
	lg := NewWalletLogic(db)

	nonce, err := lg.IssueNonce(testWallet)
	require.NoError(t, err)

	// 大小写不同的地址也能命中
	require.NoError(t, lg.ConsumeNonce(testWallet, nonce.Nonce))

	err = lg.ConsumeNonce(testWallet, nonce.Nonce)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "已使用")

	var got model.WalletNonce
	require.NoError(t, db.First(&got, "id = ?", nonce.Id).Error)
	assert.True(t, got.Used)
	require.NotNil(t, got.UsedAt)
}

func TestConsumeNonceRejectsExpired(t *testing.T) {
	db := newTestDB(t)
	lg := NewWalletLogic(db)

	nonce, err := lg.IssueNonce(testWallet)
	require.NoError(t, err)
	require.NoError(t, db.Model(nonce).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	err = lg.ConsumeNonce(testWallet, nonce.Nonce)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "已过期")
}

func TestConsumeNonceUnknown(t *testing.T) {
	db := newTestDB(t)
	lg := NewWalletLogic(db)

	err := lg.ConsumeNonce(testWallet, "never-issued")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "不存在")
}

func TestPurgeExpired(t *testing.T) {
	db := newTestDB(t)
	lg := NewWalletLogic(db)

	fresh, err := lg.IssueNonce(testWallet)
	require.NoError(t, err)
	stale, err := lg.IssueNonce(testWallet)
	require.NoError(t, err)
	require.NoError(t, db.Model(stale).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	require.NoError(t, lg.PurgeExpired())

	var remaining []model.WalletNonce
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.Id, remaining[0].Id)
}
