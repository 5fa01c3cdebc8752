package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/models"
)

// listTasksHandler returns the caller's pending and completed tasks:
// pending newest-created first, completed most-recently-completed first.
func listTasksHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var pending, completed []models.Task
	if err := db.Where("user_id = ? AND completed_at IS NULL", user.ID).
		Order("created_at desc").Find(&pending).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if err := db.Where("user_id = ? AND completed_at IS NOT NULL", user.ID).
		Order("completed_at desc").Find(&completed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending, "completed": completed})
}

// createTaskHandler creates a task from a multipart (or urlencoded) form:
// title required, optional description, important flag and file attachment.
func createTaskHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"title": "this field is required"}})
		return
	}
	if utf8.RuneCountInString(title) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"title": "too long (max 100)"}})
		return
	}
	task := models.Task{
		UserID:      user.ID,
		Title:       title,
		Description: c.PostForm("description"),
		Important:   c.PostForm("important") != "",
	}
	if file, err := c.FormFile("file"); err == nil {
		if file.Size > 5*1024*1024 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"file": "file too large (max 5MB)"}})
			return
		}
		relPath := filepath.Join("tareas", uuid.NewString()+filepath.Ext(file.Filename))
		fullPath := filepath.Join(uploadBaseDir(), relPath)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
			return
		}
		if err := c.SaveUploadedFile(file, fullPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
			return
		}
		task.AttachmentPath = relPath
	}
	if err := db.Create(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": task.ID})
}

// completeTaskHandler marks a task completed. Re-completing simply
// overwrites the timestamp. 404 when the task isn't owned by the caller.
func completeTaskHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var task models.Task
	if err := db.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).First(&task).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	now := time.Now()
	task.CompletedAt = &now
	if err := db.Save(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": task.ID, "completed_at": task.CompletedAt})
}
