package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/ifs/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskHandler struct {
	taskLogic *logic.TaskLogic
}

func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{
		taskLogic: logic.NewTaskLogic(db),
	}
}

// GetFailures 获取失败任务列表
func (h *TaskHandler) GetFailures(c *gin.Context) {
	failures, err := h.taskLogic.GetFailures()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"failures": failures})
}

// RetriggerFailure 重新触发失败任务
func (h *TaskHandler) RetriggerFailure(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的失败记录ID"})
		return
	}

	event, err := h.taskLogic.Retrigger(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "任务已重新触发",
		"event":   event,
	})
}
