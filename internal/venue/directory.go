package venue

import "sort"

// diningHallIDs are the all-you-care-to-eat halls; every other venue is retail.
var diningHallIDs = map[int]struct{}{
	593: {}, 636: {}, 637: {}, 638: {}, 1442: {}, 1464004: {},
}

const menuBase = "https://university-of-pennsylvania.cafebonappetit.com/cafe/"

var menuPaths = map[int]string{
	593:     "1920-commons/",
	636:     "hill-house/",
	637:     "kings-court-english-house/",
	638:     "falk-dining-commons/",
	1442:    "lauder-college-house/",
	1464004: "quaker-kitchen/",
	639:     "houston-market/",
	641:     "accenture-cafe/",
	642:     "joes-cafe/",
	747:     "mcclelland/",
	1057:    "1920-gourmet-grocer/",
	1163:    "1920-starbucks/",
	1732:    "pret-a-manger-upper/",
	1733:    "pret-a-manger-lower/",
	1464009: "cafe-west/",
}

// IsDiningHall reports whether id is one of the dining halls.
func IsDiningHall(id int) bool {
	_, ok := diningHallIDs[id]
	return ok
}

// MenuURL returns the venue's menu page.
func MenuURL(id int) (string, bool) {
	p, ok := menuPaths[id]
	if !ok {
		return "", false
	}
	return menuBase + p, true
}

// Partition splits venues into dining halls and retail, keeping order.
func Partition(venues []Venue) (halls, retail []Venue) {
	for _, v := range venues {
		if IsDiningHall(v.ID) {
			halls = append(halls, v)
		} else {
			retail = append(retail, v)
		}
	}
	return halls, retail
}

// Sort orders venues in place: favorites first, then by name.
func Sort(venues []Venue, favorites []int) {
	fav := make(map[int]bool, len(favorites))
	for _, id := range favorites {
		fav[id] = true
	}
	sort.SliceStable(venues, func(i, j int) bool {
		fi, fj := fav[venues[i].ID], fav[venues[j].ID]
		if fi != fj {
			return fi
		}
		return venues[i].Name < venues[j].Name
	})
}
