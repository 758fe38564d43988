package auth

func SetBcryptCost(cost int) { bcryptCost = cost }
