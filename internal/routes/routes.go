package routes

const (
	Health = "/health"

	Buildings      = "/api/v1/buildings"
	Building       = "/api/v1/buildings/{buildingId}"
	BuildingLive   = "/api/v1/buildings/{buildingId}/live"
	Apartments     = "/api/v1/buildings/{buildingId}/apartments"
	Apartment      = "/api/v1/buildings/{buildingId}/apartments/{apartmentId}"
	ApartmentNotes = "/api/v1/buildings/{buildingId}/apartments/{apartmentId}/notes"
	ApartmentVisit = "/api/v1/buildings/{buildingId}/apartments/{apartmentId}/visit"

	DoorCount    = "/api/v1/me/doorcount"
	Profile      = "/api/v1/me/profile"
	ExportVisits = "/api/v1/me/visits/export"
)
