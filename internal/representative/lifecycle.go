package representative

// CanTransition aplica a máquina de estados administrativa.
//
//	pending_approval -> active | cancelled
//	active <-> inactive | paused
//	qualquer -> cancelled (terminal)
//
// documents_pending é legado e só sai via ativação ou cancelamento.
func CanTransition(from, to Status) bool {
	if from == StatusCancelled || from == to {
		return false
	}
	if to == StatusCancelled {
		return true
	}

	switch from {
	case StatusPendingApproval, StatusDocumentsPending:
		return to == StatusActive
	case StatusActive:
		return to == StatusInactive || to == StatusPaused
	case StatusInactive, StatusPaused:
		return to == StatusActive
	}
	return false
}

// ResolveLoginDestination decide a rota do representante após o login.
// promoted só é consultado para documents_pending. Status desconhecido
// nega o acesso.
func ResolveLoginDestination(status Status, promoted func() bool) Destination {
	switch status {
	case StatusPendingApproval:
		return DestinationStatusPage
	case StatusInactive, StatusCancelled:
		return DestinationAccessDenied
	case StatusDocumentsPending:
		if promoted != nil && promoted() {
			return DestinationDashboard
		}
		return DestinationDocumentUpload
	case StatusActive, StatusPaused:
		return DestinationDashboard
	}
	return DestinationAccessDenied
}
