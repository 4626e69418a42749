package flash_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/todolist/internal/flash"
)

func TestStoreAdd(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := flash.NewStore(rdb, 10*time.Minute)

	payload := []byte(`{"kind":"success","text":"登録が完了しました"}`)
	mock.ExpectTxPipeline()
	mock.ExpectRPush("flash:bucket-1", payload).SetVal(1)
	mock.ExpectExpire("flash:bucket-1", 10*time.Minute).SetVal(true)
	mock.ExpectTxPipelineExec()

	err := store.Add(context.Background(), "bucket-1", flash.Message{
		Kind: flash.KindSuccess,
		Text: "登録が完了しました",
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAddRequiresBucket(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	store := flash.NewStore(rdb, time.Minute)

	err := store.Add(context.Background(), "", flash.Message{Kind: flash.KindError, Text: "x"})

	assert.Error(t, err)
}

func TestStoreTake(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := flash.NewStore(rdb, time.Minute)

	mock.ExpectTxPipeline()
	mock.ExpectLRange("flash:bucket-1", 0, -1).SetVal([]string{
		`{"kind":"error","text":"タスクが見つかりません"}`,
		`{"kind":"success","text":"タスクを追加しました"}`,
	})
	mock.ExpectDel("flash:bucket-1").SetVal(1)
	mock.ExpectTxPipelineExec()

	messages, err := store.Take(context.Background(), "bucket-1")

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, flash.KindError, messages[0].Kind)
	assert.Equal(t, "タスクが見つかりません", messages[0].Text)
	assert.Equal(t, flash.KindSuccess, messages[1].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreTakeEmpty(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := flash.NewStore(rdb, time.Minute)

	mock.ExpectTxPipeline()
	mock.ExpectLRange("flash:bucket-2", 0, -1).SetVal([]string{})
	mock.ExpectDel("flash:bucket-2").SetVal(0)
	mock.ExpectTxPipelineExec()

	messages, err := store.Take(context.Background(), "bucket-2")

	require.NoError(t, err)
	assert.Empty(t, messages)
	assert.NoError(t, mock.ExpectationsWereMet())
}
