package tasks

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/todolist/internal/auth"
	"github.com/yourusername/todolist/internal/flash"
	"github.com/yourusername/todolist/internal/repository"
)

const listPath = "/users/todolist"

// ListHandler は GET /users/todolist のハンドラーを返します。
func ListHandler(svc Service, flashes *flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.CurrentUserID(c)
		if !ok {
			c.Redirect(http.StatusFound, "/users/login")
			return
		}

		list, err := svc.List(c.Request.Context(), userID)
		if err != nil {
			// 部分的な一覧は見せず、ランディングページへ戻す
			flashes.AddTo(c, flash.KindError, "タスクを読み込めませんでした")
			c.Redirect(http.StatusFound, "/")
			return
		}

		c.HTML(http.StatusOK, "todolist.html", gin.H{
			"UserName":  auth.CurrentUserName(c),
			"Tasks":     list,
			"CSRFToken": auth.CSRFToken(c),
			"Flashes":   flashes.TakeFrom(c),
		})
	}
}

// AddHandler は POST /users/tasks/add のハンドラーを返します。
func AddHandler(svc Service, flashes *flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.CurrentUserID(c)
		if !ok {
			c.Redirect(http.StatusFound, "/users/login")
			return
		}

		err := svc.Add(c.Request.Context(), userID, c.PostForm("title"))
		switch {
		case errors.Is(err, ErrEmptyTitle):
			flashes.AddTo(c, flash.KindError, "タスクのタイトルを入力してください")
		case err != nil:
			flashes.AddTo(c, flash.KindError, "タスクの追加に失敗しました")
		default:
			flashes.AddTo(c, flash.KindSuccess, "タスクを追加しました")
		}
		c.Redirect(http.StatusFound, listPath)
	}
}

// EditFormHandler は GET /users/tasks/edit/:id のハンドラーを返します。
func EditFormHandler(svc Service, flashes *flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.CurrentUserID(c)
		if !ok {
			c.Redirect(http.StatusFound, "/users/login")
			return
		}

		taskID, err := parseTaskID(c)
		if err != nil {
			flashes.AddTo(c, flash.KindError, "タスクが見つかりません")
			c.Redirect(http.StatusFound, listPath)
			return
		}

		task, err := svc.Get(c.Request.Context(), taskID, userID)
		if err != nil {
			if errors.Is(err, repository.ErrTaskNotFound) {
				flashes.AddTo(c, flash.KindError, "タスクが見つかりません")
			} else {
				flashes.AddTo(c, flash.KindError, "タスクを読み込めませんでした")
			}
			c.Redirect(http.StatusFound, listPath)
			return
		}

		c.HTML(http.StatusOK, "edit.html", gin.H{
			"Task":      task,
			"CSRFToken": auth.CSRFToken(c),
			"Flashes":   flashes.TakeFrom(c),
		})
	}
}

// UpdateHandler は POST /users/tasks/update/:id のハンドラーを返します。
func UpdateHandler(svc Service, flashes *flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.CurrentUserID(c)
		if !ok {
			c.Redirect(http.StatusFound, "/users/login")
			return
		}

		taskID, err := parseTaskID(c)
		if err != nil {
			flashes.AddTo(c, flash.KindError, "タスクを更新できませんでした")
			c.Redirect(http.StatusFound, listPath)
			return
		}

		err = svc.UpdateTitle(c.Request.Context(), taskID, userID, c.PostForm("title"))
		switch {
		case errors.Is(err, ErrEmptyTitle):
			flashes.AddTo(c, flash.KindError, "タスクのタイトルを入力してください")
		case errors.Is(err, repository.ErrTaskNotFound):
			// 存在しないタスクと他人のタスクは同じ扱い
			flashes.AddTo(c, flash.KindError, "タスクを更新できませんでした。存在しないか、あなたのタスクではありません")
		case err != nil:
			flashes.AddTo(c, flash.KindError, "タスクの更新に失敗しました")
		default:
			flashes.AddTo(c, flash.KindSuccess, "タスクを更新しました")
		}
		c.Redirect(http.StatusFound, listPath)
	}
}

// DeleteHandler は POST /users/tasks/delete/:id のハンドラーを返します。
func DeleteHandler(svc Service, flashes *flash.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.CurrentUserID(c)
		if !ok {
			c.Redirect(http.StatusFound, "/users/login")
			return
		}

		taskID, err := parseTaskID(c)
		if err != nil {
			flashes.AddTo(c, flash.KindError, "タスクを削除できませんでした")
			c.Redirect(http.StatusFound, listPath)
			return
		}

		err = svc.Delete(c.Request.Context(), taskID, userID)
		switch {
		case errors.Is(err, repository.ErrTaskNotFound):
			flashes.AddTo(c, flash.KindError, "タスクを削除できませんでした。存在しないか、あなたのタスクではありません")
		case err != nil:
			flashes.AddTo(c, flash.KindError, "タスクの削除に失敗しました")
		default:
			flashes.AddTo(c, flash.KindSuccess, "タスクを削除しました")
		}
		c.Redirect(http.StatusFound, listPath)
	}
}

func parseTaskID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		log.Printf("[tasks] invalid task id %q", c.Param("id"))
		return 0, errors.New("invalid task id")
	}
	return id, nil
}
