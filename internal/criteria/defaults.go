package criteria

// Defaults returns the compiled-in criteria set used whenever the criteria
// document is missing or unreadable. Keyword lists target Spanish-language
// reviews with common English loanwords mixed in.
func Defaults() *Criteria {
	return &Criteria{
		Version:     "builtin-1",
		LastUpdated: "2026-01-15",
		BusinessTypes: BusinessTypes{
			ValidTypes: []string{
				"car_dealer", "car_rental", "car_repair", "car_wash",
				"auto_parts_store", "auto_broker",
			},
			ForbiddenTypes: []string{
				"motorcycle_dealer", "motorcycle_repair", "bicycle_store",
				"pawn_shop", "money_transfer",
			},
			MotorcycleTypes: []string{"motorcycle_dealer", "motorcycle_repair"},
		},
		NameKeywords: NameKeywords{
			Forbidden: []string{
				"motos", "moto", "motocicletas", "bicicletas", "empeño",
				"prestamos", "préstamos",
			},
			MotorcycleBrands: []string{
				"yamaha", "kawasaki", "ducati", "harley", "italika", "vento",
			},
			CarBrands: []string{
				"toyota", "nissan", "honda", "ford", "chevrolet", "volkswagen",
				"mazda", "kia", "hyundai", "seat", "auto", "autos", "automotriz",
				"automotora", "seminuevos",
			},
		},
		ReviewKeywords: ReviewKeywords{
			Automotive: []string{
				"auto", "carro", "coche", "camioneta", "vehiculo", "vehículo",
				"seminuevo", "agencia", "sedan", "suv", "motor", "llantas",
				"transmision", "transmisión", "kilometraje", "factura",
				"prueba de manejo", "financiamiento",
			},
			Motorcycle: []string{
				"moto", "motocicleta", "casco", "scooter", "cuatrimoto",
			},
			Rental: []string{
				"renta", "alquiler", "rentar", "arrendamiento", "por dia",
				"por día", "deposito", "depósito",
			},
			ServiceOnly: []string{
				"taller", "servicio", "reparacion", "reparación", "afinacion",
				"afinación", "cambio de aceite", "hojalateria", "hojalatería",
				"pintura",
			},
			NonAutomotive: []string{
				"comida", "restaurante", "hotel", "ropa", "celular", "muebles",
				"farmacia",
			},
			FraudIndicators: []string{
				"estafa", "fraude", "engaño", "robo", "no devuelven",
				"deposito perdido", "depósito perdido", "documentos falsos",
				"clonado", "denuncia",
			},
		},
		WebsiteDomains: WebsiteDomains{
			Forbidden: []string{
				"facebook.com", "marketplace.com", "mercadolibre.com.mx",
				"segundamano.mx", "olx.com",
			},
		},
		Thresholds: Thresholds{
			MinReviewsForAnalysis:      5,
			MaxReviewsToAnalyze:        15,
			MinAutomotivePercentage:    40,
			MotorcycleKeywordThreshold: 0.5,
			RentalKeywordThreshold:     0.5,
			ServiceOnlyThreshold:       0.5,
			FraudKeywordThreshold:      0.2,
			MinRatingForTrusted:        4.0,
			MinReviewsForTrusted:       25,
		},
		Scoring: Scoring{
			BaseScore:        50,
			RatingMultiplier: 10,
			ReviewCountBonus: ReviewCountBonus{
				Min:      10,
				Max:      200,
				MaxBonus: 15,
			},
			ForbiddenDomainPenalty: 20,
			FraudKeywordPenalty:    25,
			MotorcyclePenalty:      40,
			RentalPenalty:          40,
			ServiceOnlyPenalty:     40,
		},
		Features: Features{
			IncludeMotorcycles:     false,
			IncludeRentals:         false,
			IncludeServiceOnly:     false,
			ValidateWebsiteDomains: true,
		},
	}
}
