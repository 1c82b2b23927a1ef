package buttons

const (
	CompleteTaskId   = "COMPLETE_DAILY_TASK"
	CompleteTaskText = "✅ Complete task"

	//history paging
	NextPageHistory  = "NEXT_PAGE_HISTORY"
	BackPageHistory  = "BACK_PAGE_HISTORY"
	CloseListHistory = "CLOSE_LIST_HISTORY"
)
