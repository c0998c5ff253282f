package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Param status query string false "status filter"
// @Param limit query int false "page size"
// @Param offset query int false "rows to skip"
// @Router /api/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	identity, ok := h.identity(stdCtx, ctx)
	if !ok {
		return
	}

	args := ctx.QueryArgs()
	limit, limitErr := queryInt(args, "limit")
	offset, offsetErr := queryInt(args, "offset")
	if limitErr != nil || offsetErr != nil {
		h.respondMessage(ctx, http.StatusBadRequest, domain.ErrInvalidPaging.Message)
		return
	}

	tasks, err := h.uc.ListTasks(stdCtx, identity.UserID, taskUC.ListQuery{
		Status: string(args.Peek("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to fetch tasks")
		return
	}
	h.respondJSON(ctx, http.StatusOK, tasks)
}

// @Summary Create task
// @Tags tasks
// @Router /api/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	identity, ok := h.identity(stdCtx, ctx)
	if !ok {
		return
	}

	var req transport.CreateTaskRequest
	if !h.decode(ctx, &req) {
		return
	}

	in := taskUC.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	}
	if req.DueDate != nil {
		in.DueDate = *req.DueDate
	}

	created, err := h.uc.CreateTask(stdCtx, identity.UserID, in)
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to create task")
		return
	}
	h.respondJSON(ctx, http.StatusCreated, created)
}

// @Summary Get task
// @Tags tasks
// @Router /api/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	identity, ok := h.identity(stdCtx, ctx)
	if !ok {
		return
	}

	task, err := h.uc.GetTask(stdCtx, identity.UserID, taskID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to fetch task")
		return
	}
	h.respondJSON(ctx, http.StatusOK, task)
}

// @Summary Update task
// @Tags tasks
// @Router /api/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	identity, ok := h.identity(stdCtx, ctx)
	if !ok {
		return
	}

	var req transport.UpdateTaskRequest
	if !h.decode(ctx, &req) {
		return
	}

	in := taskUC.UpdateInput{
		Title:            req.Title.Ptr(),
		Description:      req.Description.Ptr(),
		ClearDescription: req.Description.Null,
		DueDate:          req.DueDate.Ptr(),
		ClearDueDate:     req.DueDate.Null,
	}
	// An explicit null enum is sent on as "" so validation rejects it.
	if req.Priority.Set {
		in.Priority = &req.Priority.Value
	}
	if req.Status.Set {
		in.Status = &req.Status.Value
	}
	if req.Title.Set && req.Title.Null {
		empty := ""
		in.Title = &empty
	}

	updated, err := h.uc.UpdateTask(stdCtx, identity.UserID, taskID(ctx), in)
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to update task")
		return
	}
	h.respondJSON(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	identity, ok := h.identity(stdCtx, ctx)
	if !ok {
		return
	}

	if err := h.uc.DeleteTask(stdCtx, identity.UserID, taskID(ctx)); err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to delete task")
		return
	}
	h.respondNoContent(ctx)
}

// queryInt returns 0 for an absent key and an error for anything that is not
// a non-negative integer.
func queryInt(args *fasthttp.Args, key string) (int, error) {
	if !args.Has(key) {
		return 0, nil
	}
	return args.GetUint(key)
}

func taskID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}
