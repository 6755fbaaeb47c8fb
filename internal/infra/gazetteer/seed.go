package gazetteer

import "github.com/yanqian/uv-australia/internal/domain/gazetteer"

// DefaultCities lists the ARPANSA monitoring stations.
func DefaultCities() []gazetteer.City {
	return []gazetteer.City{
		{ID: "Adelaide", Name: "Adelaide", ShortName: "adl", State: "SA", Latitude: -34.9285, Longitude: 138.6007},
		{ID: "Alice Springs", Name: "Alice Springs", ShortName: "ali", State: "NT", Latitude: -23.6980, Longitude: 133.8807},
		{ID: "Brisbane", Name: "Brisbane", ShortName: "bri", State: "QLD", Latitude: -27.4698, Longitude: 153.0251},
		{ID: "Canberra", Name: "Canberra", ShortName: "can", State: "ACT", Latitude: -35.2809, Longitude: 149.1300},
		{ID: "Darwin", Name: "Darwin", ShortName: "dar", State: "NT", Latitude: -12.4634, Longitude: 130.8456},
		{ID: "Emerald", Name: "Emerald", ShortName: "emd", State: "QLD", Latitude: -23.5273, Longitude: 148.1646},
		{ID: "Gold Coast", Name: "Gold Coast", ShortName: "gco", State: "QLD", Latitude: -28.0167, Longitude: 153.4000},
		{ID: "Kingston", Name: "Kingston", ShortName: "kin", State: "TAS", Latitude: -42.9769, Longitude: 147.3083},
		{ID: "Melbourne", Name: "Melbourne", ShortName: "mel", State: "VIC", Latitude: -37.8136, Longitude: 144.9631},
		{ID: "Newcastle", Name: "Newcastle", ShortName: "new", State: "NSW", Latitude: -32.9283, Longitude: 151.7817},
		{ID: "Perth", Name: "Perth", ShortName: "per", State: "WA", Latitude: -31.9505, Longitude: 115.8605},
		{ID: "Sydney", Name: "Sydney", ShortName: "syd", State: "NSW", Latitude: -33.8688, Longitude: 151.2093},
		{ID: "Townsville", Name: "Townsville", ShortName: "tow", State: "QLD", Latitude: -19.2590, Longitude: 146.8169},
		{ID: "Casey", Name: "Casey", ShortName: "cas", State: gazetteer.StateAntarctic, Latitude: -66.2823, Longitude: 110.5278},
		{ID: "Davis", Name: "Davis", ShortName: "dav", State: gazetteer.StateAntarctic, Latitude: -68.5766, Longitude: 77.9674},
		{ID: "Macquarie Island", Name: "Macquarie Island", ShortName: "mcq", State: gazetteer.StateAntarctic, Latitude: -54.4996, Longitude: 158.9370},
		{ID: "Mawson", Name: "Mawson", ShortName: "maw", State: gazetteer.StateAntarctic, Latitude: -67.6027, Longitude: 62.8738},
	}
}

// DefaultPostcodes maps metropolitan postcode ranges to their station.
func DefaultPostcodes() []gazetteer.PostcodeRange {
	return []gazetteer.PostcodeRange{
		{CityID: "Darwin", From: 800, To: 832},
		{CityID: "Alice Springs", From: 870, To: 872},
		{CityID: "Sydney", From: 2000, To: 2234},
		{CityID: "Newcastle", From: 2280, To: 2310},
		{CityID: "Canberra", From: 2600, To: 2620},
		{CityID: "Canberra", From: 2900, To: 2914},
		{CityID: "Melbourne", From: 3000, To: 3207},
		{CityID: "Brisbane", From: 4000, To: 4206},
		{CityID: "Gold Coast", From: 4207, To: 4230},
		{CityID: "Emerald", From: 4720, To: 4721},
		{CityID: "Townsville", From: 4810, To: 4819},
		{CityID: "Adelaide", From: 5000, To: 5199},
		{CityID: "Perth", From: 6000, To: 6199},
		{CityID: "Kingston", From: 7000, To: 7099},
	}
}
