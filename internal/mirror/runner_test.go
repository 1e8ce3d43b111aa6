package mirror

import (
	"context"
	"errors"
	"testing"

	"github.com/blues/ifs/internal/ledger"
	"github.com/blues/ifs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTask 按脚本返回结果的任务桩
type scriptedTask struct {
	results   []Result
	runs      int
	recovered []*ledger.Receipt
}

func (t *scriptedTask) Name() string     { return "scripted" }
func (t *scriptedTask) EntityId() string { return "entity-1" }

func (t *scriptedTask) Run(ctx context.Context, recovered *ledger.Receipt) Result {
	t.recovered = append(t.recovered, recovered)
	result := t.results[t.runs]
	t.runs++
	return result
}

func TestRunnerRetriesTransientUpToLimit(t *testing.T) {
	db := newTestDB(t)
	runner := NewRunner(db, &fakeSubmitter{}, testTaskConfig())

	task := &scriptedTask{results: []Result{
		Transient(errors.New("rpc down")),
		Transient(errors.New("rpc down")),
		Transient(errors.New("rpc down")),
	}}
	result := runner.Execute(context.Background(), task)

	assert.False(t, result.Ok())
	assert.Equal(t, 3, task.runs)

	failures := taskFailures(t, db)
	require.Len(t, failures, 1)
	assert.Equal(t, model.FailureTransient, failures[0].Category)
	assert.Equal(t, 3, failures[0].Attempts)
	assert.Equal(t, "scripted", failures[0].TaskName)
	assert.Equal(t, "entity-1", failures[0].EntityId)
}

func TestRunnerStopsOnPermanentFailure(t *testing.T) {
	db := newTestDB(t)
	runner := NewRunner(db, &fakeSubmitter{}, testTaskConfig())

	task := &scriptedTask{results: []Result{Permanent(errors.New("precondition violated"))}}
	runner.Execute(context.Background(), task)

	assert.Equal(t, 1, task.runs)
	failures := taskFailures(t, db)
	require.Len(t, failures, 1)
	assert.Equal(t, model.FailurePermanent, failures[0].Category)
	assert.Equal(t, 1, failures[0].Attempts)
}

func TestRunnerStopsOnDataIntegrityFailure(t *testing.T) {
	db := newTestDB(t)
	runner := NewRunner(db, &fakeSubmitter{}, testTaskConfig())

	task := &scriptedTask{results: []Result{DataIntegrity(errors.New("event missing"))}}
	runner.Execute(context.Background(), task)

	assert.Equal(t, 1, task.runs)
	failures := taskFailures(t, db)
	require.Len(t, failures, 1)
	assert.Equal(t, model.FailureDataIntegrity, failures[0].Category)
}

func TestRunnerSucceedsAfterRetry(t *testing.T) {
	db := newTestDB(t)
	runner := NewRunner(db, &fakeSubmitter{}, testTaskConfig())

	task := &scriptedTask{results: []Result{
		Transient(errors.New("rpc down")),
		Done(),
	}}
	result := runner.Execute(context.Background(), task)

	assert.True(t, result.Ok())
	assert.Equal(t, 2, task.runs)
	assert.Empty(t, taskFailures(t, db))
}

func TestRunnerRecoversTimedOutTransaction(t *testing.T) {
	db := newTestDB(t)
	txHash := common.HexToHash("0x1234")
	landed := &ledger.Receipt{TxHash: txHash, Status: types.ReceiptStatusSuccessful, BlockNumber: 7}

	submitter := &fakeSubmitter{
		receiptFn: func(h common.Hash) (*ledger.Receipt, error) {
			if h == txHash {
				return landed, nil
			}
			return nil, ledger.ErrReceiptNotFound
		},
	}
	runner := NewRunner(db, submitter, testTaskConfig())

	task := &scriptedTask{results: []Result{
		Transient(&ledger.TimeoutError{TxHash: txHash}),
		Done(),
	}}
	result := runner.Execute(context.Background(), task)

	assert.True(t, result.Ok())
	require.Len(t, task.recovered, 2)
	// 第一次执行无恢复回执，第二次带上已落块的原交易回执
	assert.Nil(t, task.recovered[0])
	assert.Equal(t, landed, task.recovered[1])
}

func TestRunnerRetriesFreshWhenTimedOutTxNeverLanded(t *testing.T) {
	db := newTestDB(t)
	runner := NewRunner(db, &fakeSubmitter{}, testTaskConfig())

	task := &scriptedTask{results: []Result{
		Transient(&ledger.TimeoutError{TxHash: common.HexToHash("0x1234")}),
		Done(),
	}}
	result := runner.Execute(context.Background(), task)

	assert.True(t, result.Ok())
	require.Len(t, task.recovered, 2)
	assert.Nil(t, task.recovered[1])
}

func TestSubmitErrorClassification(t *testing.T) {
	revert := FromSubmitError(&ledger.RevertError{TxHash: common.HexToHash("0xbad")})
	assert.True(t, revert.Retryable())
	assert.Equal(t, model.FailureTransient, revert.Category())

	timeout := FromSubmitError(&ledger.TimeoutError{TxHash: common.HexToHash("0xbad")})
	assert.True(t, timeout.Retryable())

	nonce := FromSubmitError(errors.New("nonce too low"))
	assert.True(t, nonce.Retryable())
}
