package repositories

import (
	"github.com/MohnajibG/circet/internal/docstore"
)

/*
Persisted layout, mirrored from the shared store:

	buildings/{id}
	buildings/{id}/apartments/{id}
	users/{uid}
	users/{uid}/visits/{id}

Every apartment belongs to exactly one building by construction of its
path; visits reference a (building, apartment) pair by id only and are
never checked against it.
*/
const (
	buildingsCollection = "buildings"
	usersCollection     = "users"
)

func buildingPath(buildingID string) string {
	return docstore.Join(buildingsCollection, buildingID)
}

func apartmentsPath(buildingID string) string {
	return buildingPath(buildingID) + "/apartments"
}

func apartmentPath(buildingID, apartmentID string) string {
	return docstore.Join(apartmentsPath(buildingID), apartmentID)
}

func userPath(uid string) string {
	return docstore.Join(usersCollection, uid)
}

func visitsPath(uid string) string {
	return userPath(uid) + "/visits"
}
