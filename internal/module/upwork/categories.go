package upwork

// Category identifiers keyed by lowercased display name.
var mainCategories = map[string]string{
	"accounting & consulting":    "531770282584862721",
	"admin support":              "531770282580668416",
	"customer service":           "531770282580668417",
	"data science & analytics":   "531770282580668420",
	"design & creative":          "531770282580668421",
	"engineering & architecture": "531770282584862722",
	"it & networking":            "531770282580668419",
	"legal":                      "531770282584862723",
	"sales & marketing":          "531770282580668422",
	"translation":                "531770282584862720",
	"web, mobile & software dev": "531770282580668418",
	"writing":                    "531770282580668423",
}

var subCategories = map[string]string{
	// accounting & consulting
	"personal & professional coaching": "1534904461833879552",
	"accounting & bookkeeping":         "531770282601639943",
	"financial planning":               "531770282601639945",
	"recruiting & human resources":     "531770282601639946",
	"management consulting & analysis": "531770282601639944",
	"other - accounting & consulting":  "531770282601639947",
	// admin support
	"data entry & transcription services": "531770282584862724",
	"virtual assistance":                  "531770282584862725",
	"project management":                  "531770282584862728",
	"market research & product reviews":   "531770282584862726",
	// customer service
	"community management & tagging":  "1484275072572772352",
	"customer service & tech support": "531770282584862730",
	// data science & analytics
	"data analysis & testing":  "531770282593251330",
	"data extraction & etl":    "531770282593251331",
	"data mining & management": "531770282589057038",
	"ai & machine learning":    "531770282593251329",
	// design & creative
	"art & illustration":                       "531770282593251335",
	"audio & music production":                 "531770282593251341",
	"branding & logo design":                   "1044578476142100480",
	"nft, ar/vr & game art":                    "1356688560628174848",
	"graphic, editorial & presentation design": "531770282593251334",
	"performing arts":                          "1356688565288046592",
	"photography":                              "531770282593251340",
	"product design":                           "531770282601639953",
	"video & animation":                        "1356688570056970240",
	// engineering & architecture
	"building & landscape architecture":   "531770282601639949",
	"chemical engineering":                "531770282605834240",
	"civil & structural engineering":      "531770282601639950",
	"contract manufacturing":              "531770282605834241",
	"electrical & electronic engineering": "531770282601639951",
	"interior & trade show design":        "531770282605834242",
	"energy & mechanical engineering":     "531770282601639952",
	"physical sciences":                   "1301900647896092672",
	"3d modeling & cad":                   "531770282601639948",
	// it & networking
	"database management & administration": "531770282589057033",
	"erp & crm software":                   "531770282589057034",
	"information security & compliance":    "531770282589057036",
	"network & system administration":      "531770282589057035",
	"devops & solution architecture":       "531770282589057037",
	// legal
	"corporate & contract law":        "531770282605834246",
	"international & immigration law": "1484275156546932736",
	"finance & tax law":               "531770283696353280",
	"public law":                      "1484275408410693632",
	// sales & marketing
	"digital marketing":               "531770282597445636",
	"lead generation & telemarketing": "531770282597445634",
	"marketing, pr & brand strategy":  "531770282593251343",
	// translation
	"language tutoring & interpretation":  "1534904461842268160",
	"translation & localization services": "531770282601639939",
	// web, mobile & software dev
	"blockchain, nft & cryptocurrency": "1517518458442309632",
	"ai apps and integration":          "1737190722360750082",
	"desktop application development":  "531770282589057025",
	"ecommerce development":            "531770282589057026",
	"game design & development":        "531770282589057027",
	"mobile development":               "531770282589057024",
	"other - software development":     "531770282589057032",
	"product management":               "531770282589057030",
	"qa & testing":                     "531770282589057031",
	"scripts & utilities":              "531770282589057028",
	"web & mobile design":              "531770282589057029",
	"web development":                  "531770282584862733",
	// writing
	"sales & marketing copywriting":   "1534904462131675136",
	"content writing":                 "1301900640421842944",
	"editing & proofreading services": "531770282597445644",
	"professional & business writing": "531770282597445646",
}

// resolveCategory looks the name up in the main table first, then the
// subcategory table.
func resolveCategory(name string) (id string, sub bool, ok bool) {
	if id, ok := mainCategories[name]; ok {
		return id, false, true
	}
	if id, ok := subCategories[name]; ok {
		return id, true, true
	}
	return "", false, false
}
