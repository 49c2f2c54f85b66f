package delivery

import (
	"context"
	"errors"
	"io"
	"postline/internal/database"
	"postline/internal/database/models"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Mocks ---

// MockPostRepository is a mock for database.PostRepository
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	args := m.Called(ctx, id)
	if post, ok := args.Get(0).(*models.Post); ok {
		return post, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPostRepository) FindDuePosts(ctx context.Context, now time.Time, limit int) ([]models.Post, error) {
	args := m.Called(ctx, now, limit)
	if posts, ok := args.Get(0).([]models.Post); ok {
		return posts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPostRepository) SaveDeliveryResult(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

// MockDispatcher is a mock for the Dispatcher interface
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Send(ctx context.Context, ch models.Channel, text string, media *models.MediaAttachment) (bool, string) {
	args := m.Called(ctx, ch, text, media)
	return args.Bool(0), args.String(1)
}

func testLogEntry() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func newTestTask(t *testing.T, repo *MockPostRepository, disp *MockDispatcher) *Task {
	t.Helper()
	task, err := NewTask(repo, disp, testLogEntry())
	require.NoError(t, err)
	task.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return task
}

func telegramChannel() models.Channel {
	return models.Channel{Platform: models.PlatformTelegram, Username: "@boz_community"}
}

// --- Tests ---

func TestDeliverTextPostSuccess(t *testing.T) {
	postID := primitive.NewObjectID()
	post := &models.Post{
		ID:      postID,
		Type:    models.PostTypeText,
		Content: "hello",
		Status:  models.PostStatusScheduled,
		Channel: telegramChannel(),
	}

	repo := new(MockPostRepository)
	disp := new(MockDispatcher)
	repo.On("GetPostByID", mock.Anything, postID).Return(post, nil).Once()
	disp.On("Send", mock.Anything, post.Channel, "hello", (*models.MediaAttachment)(nil)).Return(true, "").Once()
	repo.On("SaveDeliveryResult", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		return p.Status == models.PostStatusSent && p.SentAt != nil && p.ErrorMessage == ""
	})).Return(nil).Once()

	task := newTestTask(t, repo, disp)
	outcome, err := task.Deliver(context.Background(), postID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)
	repo.AssertExpectations(t)
	disp.AssertExpectations(t)
}

func TestDeliverAlreadySentIsNoOp(t *testing.T) {
	postID := primitive.NewObjectID()
	sentAt := time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC)
	post := &models.Post{
		ID:      postID,
		Type:    models.PostTypeText,
		Content: "hello",
		Status:  models.PostStatusSent,
		SentAt:  &sentAt,
		Channel: telegramChannel(),
	}

	repo := new(MockPostRepository)
	disp := new(MockDispatcher)
	repo.On("GetPostByID", mock.Anything, postID).Return(post, nil).Once()

	task := newTestTask(t, repo, disp)
	outcome, err := task.Deliver(context.Background(), postID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadySent, outcome)
	disp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "SaveDeliveryResult", mock.Anything, mock.Anything)
}

func TestDeliverPostNotFound(t *testing.T) {
	postID := primitive.NewObjectID()

	repo := new(MockPostRepository)
	disp := new(MockDispatcher)
	repo.On("GetPostByID", mock.Anything, postID).Return(nil, database.ErrPostNotFound).Once()

	task := newTestTask(t, repo, disp)
	outcome, err := task.Deliver(context.Background(), postID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, outcome)
	disp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliverStoreErrorPropagates(t *testing.T) {
	postID := primitive.NewObjectID()

	repo := new(MockPostRepository)
	disp := new(MockDispatcher)
	repo.On("GetPostByID", mock.Anything, postID).Return(nil, errors.New("connection reset")).Once()

	task := newTestTask(t, repo, disp)
	_, err := task.Deliver(context.Background(), postID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDeliverMediaPostUsesFirstAttachmentOnly(t *testing.T) {
	postID := primitive.NewObjectID()
	post := &models.Post{
		ID:      postID,
		Type:    models.PostTypeMedia,
		Content: "look at this",
		Status:  models.PostStatusScheduled,
		Channel: telegramChannel(),
		Attachments: []models.MediaAttachment{
			{File: "/media/first.jpg", Caption: "first"},
			{File: "/media/second.jpg", Caption: "second"},
		},
	}

	repo := new(MockPostRepository)
	disp := new(MockDispatcher)
	repo.On("GetPostByID", mock.Anything, postID).Return(post, nil).Once()
	disp.On("Send", mock.Anything, post.Channel, "look at this", mock.MatchedBy(func(m *models.MediaAttachment) bool {
		return m != nil && m.File == "/media/first.jpg"
	})).Return(true, "").Once()
	repo.On("SaveDeliveryResult", mock.Anything, mock.Anything).Return(nil).Once()

	task := newTestTask(t, repo, disp)
	outcome, err := task.Deliver(context.Background(), postID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)
	disp.AssertExpectations(t)
}

func TestDeliverMediaPostWithoutAttachmentsFails(t *testing.T) {
	postID := primitive.NewObjectID()
	post := &models.Post{
		ID:      postID,
		Type:    models.PostTypeMedia,
		Status:  models.PostStatusScheduled,
		Channel: telegramChannel(),
	}

	repo := new(MockPostRepository)
	disp := new(MockDispatcher)
	repo.On("GetPostByID", mock.Anything, postID).Return(post, nil).Once()
	repo.On("SaveDeliveryResult", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		return p.Status == models.PostStatusFailed && p.ErrorMessage == ReasonNoMedia && p.SentAt == nil
	})).Return(nil).Once()

	task := newTestTask(t, repo, disp)
	outcome, err := task.Deliver(context.Background(), postID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	disp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliverUnsupportedTypeFailsWithoutDispatch(t *testing.T) {
	postID := primitive.NewObjectID()
	post := &models.Post{
		ID:      postID,
		Type:    models.PostType("poll"),
		Status:  models.PostStatusScheduled,
		Channel: telegramChannel(),
	}

	repo := new(MockPostRepository)
	disp := new(MockDispatcher)
	repo.On("GetPostByID", mock.Anything, postID).Return(post, nil).Once()
	repo.On("SaveDeliveryResult", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		return p.Status == models.PostStatusFailed && p.ErrorMessage == ReasonUnsupportedType
	})).Return(nil).Once()

	task := newTestTask(t, repo, disp)
	outcome, err := task.Deliver(context.Background(), postID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	disp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliverDispatcherFailureRecordsReason(t *testing.T) {
	postID := primitive.NewObjectID()
	post := &models.Post{
		ID:      postID,
		Type:    models.PostTypeText,
		Content: "hello",
		Status:  models.PostStatusScheduled,
		Channel: telegramChannel(),
	}

	repo := new(MockPostRepository)
	disp := new(MockDispatcher)
	repo.On("GetPostByID", mock.Anything, postID).Return(post, nil).Once()
	disp.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(false, "chat not found").Once()
	repo.On("SaveDeliveryResult", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		return p.Status == models.PostStatusFailed && p.ErrorMessage == "chat not found"
	})).Return(nil).Once()

	task := newTestTask(t, repo, disp)
	outcome, err := task.Deliver(context.Background(), postID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
}

func TestDeliverEmptyDispatcherReasonBecomesUnknown(t *testing.T) {
	postID := primitive.NewObjectID()
	post := &models.Post{
		ID:      postID,
		Type:    models.PostTypeText,
		Content: "hello",
		Status:  models.PostStatusScheduled,
		Channel: telegramChannel(),
	}

	repo := new(MockPostRepository)
	disp := new(MockDispatcher)
	repo.On("GetPostByID", mock.Anything, postID).Return(post, nil).Once()
	disp.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(false, "").Once()
	repo.On("SaveDeliveryResult", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		return p.Status == models.PostStatusFailed && p.ErrorMessage == ReasonUnknown
	})).Return(nil).Once()

	task := newTestTask(t, repo, disp)
	outcome, err := task.Deliver(context.Background(), postID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
}

func TestDeliverPersistFailurePropagates(t *testing.T) {
	postID := primitive.NewObjectID()
	post := &models.Post{
		ID:      postID,
		Type:    models.PostTypeText,
		Content: "hello",
		Status:  models.PostStatusScheduled,
		Channel: telegramChannel(),
	}

	repo := new(MockPostRepository)
	disp := new(MockDispatcher)
	repo.On("GetPostByID", mock.Anything, postID).Return(post, nil).Once()
	disp.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, "").Once()
	repo.On("SaveDeliveryResult", mock.Anything, mock.Anything).Return(errors.New("write concern failed")).Once()

	task := newTestTask(t, repo, disp)
	_, err := task.Deliver(context.Background(), postID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "write concern failed")
}
