package catalog

// Логические имена элементов. Ядро и сценарии сайта оперируют только ими,
// конкретные CSS селекторы живут в каталоге.
const (
	TalentCard = "talent_card"
	TalentLink = "talent_link"
	NextPage   = "next_page"
	Cookie     = "cookie_accept"

	InviteButton   = "invite_button"
	InviteMenu     = "invite_menu"
	InviteExisting = "invite_existing"
	InviteModal    = "invite_modal"
	ModalClose     = "modal_close"

	JobValue  = "job_value"
	JobLabel  = "job_label"
	JobOpener = "job_opener"
	JobList   = "job_list"
	JobSearch = "job_search"
	JobOption = "job_option"

	InviteSubmit = "invite_submit"
	ToastSuccess = "toast_success"
	ToastError   = "toast_error"
	ToastAlready = "toast_already"

	FavoriteButton     = "favorite_button"
	FavoritesDropdown  = "favorites_dropdown"
	FavoritesList      = "favorites_list_button"
	FavoritesListOn    = "favorites_list_active"
	FavoriteSuccess    = "favorite_success"
	FavoritesMenuClose = "favorites_close"
)
