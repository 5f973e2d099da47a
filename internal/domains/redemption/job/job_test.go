package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"localdeals-backend/internal/domains/redemption/model"
	"localdeals-backend/internal/domains/redemption/service"
	"localdeals-backend/internal/shared"
	"localdeals-backend/internal/shared/utils"
)

// fakeService chỉ implement hai method housekeeping, còn lại panic nếu bị gọi
type fakeService struct {
	service.ServiceInterface
	mock.Mock
}

func (f *fakeService) ExpireRedemption(ctx context.Context, id uuid.UUID) (bool, error) {
	args := f.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (f *fakeService) SweepExpired(ctx context.Context, limit int) (int64, error) {
	args := f.Called(ctx, limit)
	return args.Get(0).(int64), args.Error(1)
}

type capturingEnqueuer struct {
	task *asynq.Task
	opts []asynq.Option
	err  error
}

func (c *capturingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	c.task = task
	c.opts = opts
	if c.err != nil {
		return nil, c.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: shared.QueueRedemption}, nil
}

func optionValue(opts []asynq.Option, typ asynq.OptionType) (interface{}, bool) {
	for _, o := range opts {
		if o.Type() == typ {
			return o.Value(), true
		}
	}
	return nil, false
}

// =====================================================
// ENQUEUER
// =====================================================

func TestExpiryEnqueuer_ScheduleExpiry(t *testing.T) {
	client := &capturingEnqueuer{}
	e := NewExpiryEnqueuer(client, "")
	id := uuid.New()
	at := time.Date(2026, 3, 10, 9, 1, 0, 0, time.UTC)

	require.NoError(t, e.ScheduleExpiry(context.Background(), id, at))

	require.NotNil(t, client.task)
	assert.Equal(t, shared.TypeExpireRedemption, client.task.Type())

	var payload model.ExpireRedemptionPayload
	require.NoError(t, utils.UnmarshalTask(client.task, &payload))
	assert.Equal(t, id, payload.RedemptionID)

	queue, ok := optionValue(client.opts, asynq.QueueOpt)
	require.True(t, ok)
	assert.Equal(t, shared.QueueRedemption, queue)

	processAt, ok := optionValue(client.opts, asynq.ProcessAtOpt)
	require.True(t, ok)
	assert.Equal(t, at.Add(time.Second), processAt)

	taskID, ok := optionValue(client.opts, asynq.TaskIDOpt)
	require.True(t, ok)
	assert.Equal(t, "expire:"+id.String(), taskID)
}

func TestExpiryEnqueuer_PropagatesError(t *testing.T) {
	client := &capturingEnqueuer{err: asynq.ErrTaskIDConflict}
	e := NewExpiryEnqueuer(client, "critical")

	err := e.ScheduleExpiry(context.Background(), uuid.New(), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.ErrTaskIDConflict)

	queue, _ := optionValue(client.opts, asynq.QueueOpt)
	assert.Equal(t, "critical", queue)
}

// =====================================================
// HANDLERS
// =====================================================

func TestExpireRedemptionHandler(t *testing.T) {
	svc := &fakeService{}
	id := uuid.New()
	svc.On("ExpireRedemption", mock.Anything, id).Return(true, nil).Once()

	task, err := utils.MarshalTask(shared.TypeExpireRedemption, model.ExpireRedemptionPayload{RedemptionID: id})
	require.NoError(t, err)

	require.NoError(t, NewExpireRedemptionHandler(svc).ProcessTask(context.Background(), task))
	svc.AssertExpectations(t)
}

func TestExpireRedemptionHandler_BadPayloadSkipsRetry(t *testing.T) {
	svc := &fakeService{}
	task := asynq.NewTask(shared.TypeExpireRedemption, []byte("{not json"))

	err := NewExpireRedemptionHandler(svc).ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	svc.AssertNotCalled(t, "ExpireRedemption", mock.Anything, mock.Anything)
}

func TestExpireRedemptionHandler_StoreErrorRetries(t *testing.T) {
	svc := &fakeService{}
	id := uuid.New()
	svc.On("ExpireRedemption", mock.Anything, id).Return(false, model.ErrStoreUnavailable)

	task, err := utils.MarshalTask(shared.TypeExpireRedemption, model.ExpireRedemptionPayload{RedemptionID: id})
	require.NoError(t, err)

	err = NewExpireRedemptionHandler(svc).ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

func TestSweepExpiredHandler_DrainsFullBatches(t *testing.T) {
	svc := &fakeService{}
	svc.On("SweepExpired", mock.Anything, 100).Return(int64(100), nil).Twice()
	svc.On("SweepExpired", mock.Anything, 100).Return(int64(7), nil).Once()

	task, err := utils.MarshalTask(shared.TypeSweepExpired, model.SweepExpiredPayload{Limit: 100})
	require.NoError(t, err)

	require.NoError(t, NewSweepExpiredHandler(svc).ProcessTask(context.Background(), task))
	svc.AssertNumberOfCalls(t, "SweepExpired", 3)
}

func TestSweepExpiredHandler_DefaultBatchAndCap(t *testing.T) {
	svc := &fakeService{}
	svc.On("SweepExpired", mock.Anything, defaultSweepBatch).Return(int64(defaultSweepBatch), nil)

	task, err := utils.MarshalTask(shared.TypeSweepExpired, model.SweepExpiredPayload{})
	require.NoError(t, err)

	require.NoError(t, NewSweepExpiredHandler(svc).ProcessTask(context.Background(), task))
	svc.AssertNumberOfCalls(t, "SweepExpired", maxSweepBatches)
}

func TestSweepExpiredHandler_Error(t *testing.T) {
	svc := &fakeService{}
	svc.On("SweepExpired", mock.Anything, defaultSweepBatch).Return(int64(0), errors.New("connection reset"))

	task, err := utils.MarshalTask(shared.TypeSweepExpired, model.SweepExpiredPayload{})
	require.NoError(t, err)

	err = NewSweepExpiredHandler(svc).ProcessTask(context.Background(), task)
	assert.Error(t, err)
}
